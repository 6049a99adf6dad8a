package subtrack

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// signUpTimeout bounds the registration transaction
const signUpTimeout = time.Second * 10

// Auther orchestrates sign-up and sign-in against the user store
type Auther struct {
	repo             RepositoryManager
	tokenService     TokenService
	logger           Logger
	deterministicIDs bool
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		repo:         repo,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithDeterministicIDs derives user ids from the email instead of generating
// random UUIDs. Mostly useful for fixtures and repeatable environments.
func (s *Auther) WithDeterministicIDs() *Auther {
	s.deterministicIDs = true
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// SignUp registers a new user and issues a session token. The whole operation
// runs inside one transaction: the existence check, the hash and the insert
// either all land or none do. The unique index on email backstops the
// check-then-act window against a concurrent sign-up with the same address.
func (s *Auther) SignUp(ctx context.Context, name, email, password string) (string, *User, error) {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, signUpTimeout)
	defer cancel()

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil && !repository.IsRecordNotFound(err) {
			return errors.Wrap(err, errors.CategoryInternal, "failed to look up existing user")
		}

		if existing != nil {
			return ErrUserExists
		}

		hash, err := HashPassword(password)
		if err != nil {
			var richErr *errors.Error
			if errors.As(err, &richErr) {
				return richErr
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
		}

		user.Name = name
		user.Email = email
		user.PasswordHash = hash
		if s.deterministicIDs {
			if id, err := hashid.NewUUID(strings.ToLower(email)); err == nil {
				user.ID = id
			}
		}

		if user, err = s.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			if IsDuplicateKeyError(err) {
				// A concurrent sign-up won the race; surface the same conflict
				// the existence check would have.
				return ErrUserExists
			}
			return errors.Wrap(err, errors.CategoryInternal, "could not create user")
		}

		return nil
	})

	if err != nil {
		s.logger.Error("SignUp failed", "email", email, "error", err)
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return "", nil, richErr
		}
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "user registration transaction failed")
	}

	token, err := s.tokenService.Generate(user)
	if err != nil {
		s.logger.Error("SignUp token generation failed", "user_id", user.ID, "error", err)
		return "", nil, err
	}

	s.logger.Info("SignUp succeeded", "user_id", user.ID, "email", user.Email)

	return token, user, nil
}

// SignIn verifies credentials and issues a session token. Read only, no
// transaction needed.
func (s *Auther) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrUserNotFound
		}
		s.logger.Error("SignIn lookup failed", "email", email, "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to look up user")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Info("SignIn rejected", "email", email)
		return "", ErrInvalidPassword
	}

	token, err := s.tokenService.Generate(user)
	if err != nil {
		s.logger.Error("SignIn token generation failed", "user_id", user.ID, "error", err)
		return "", err
	}

	return token, nil
}

// SessionFromToken validates the raw token and returns its claims
func (s *Auther) SessionFromToken(raw string) (AuthClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	return claims, nil
}

// IdentityFromClaims resolves the token subject to a live user record. Tokens
// are stateless, so this fresh read is what notices a deleted user.
func (s *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (*User, error) {
	user, err := s.repo.Users().GetByID(ctx, claims.UserID())
	if err != nil {
		s.logger.Error("IdentityFromClaims lookup failed", "user_id", claims.UserID(), "error", err)
		return nil, err
	}

	return user, nil
}

var _ Authenticator = (*Auther)(nil)
