package subtrack_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtrackd/subtrack"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type testConfig struct {
	signingKey string
	expiration int
}

func (c testConfig) GetSigningKey() string   { return c.signingKey }
func (c testConfig) GetTokenExpiration() int { return c.expiration }
func (c testConfig) GetContextKey() string   { return "user" }
func (c testConfig) GetAuthScheme() string   { return "Bearer" }
func (c testConfig) GetIssuer() string       { return "subtrack" }

func defTestConfig() testConfig {
	return testConfig{
		signingKey: "test-signing-key",
		expiration: 1,
	}
}

var testDBSeq atomic.Int64

// newTestDB opens a throwaway in-memory database. The DSN carries a sequence
// number on top of the test name because cache=shared would otherwise hand two
// databases opened within one test the same underlying store.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"), testDBSeq.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	subtrack.RegisterModels(db)
	require.NoError(t, subtrack.CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestRepo(t *testing.T) subtrack.RepositoryManager {
	t.Helper()

	repo := subtrack.NewRepositoryManager(newTestDB(t))
	require.NoError(t, repo.Validate())

	return repo
}

func TestAutherSignUp(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	auther := subtrack.NewAuthenticator(repo, defTestConfig())

	token, user, err := auther.SignUp(ctx, "Test User", "Signup@Example.COM", "secret-password")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotEmpty(t, token)

	assert.Equal(t, "signup@example.com", user.Email, "email is stored normalized")
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "secret-password", user.PasswordHash)

	claims, err := auther.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID())

	resolved, err := auther.IdentityFromClaims(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestAutherSignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	auther := subtrack.NewAuthenticator(repo, defTestConfig())

	_, _, err := auther.SignUp(ctx, "First", "taken@example.com", "password-one")
	require.NoError(t, err)

	// The normalized form collides even when the caller changes the casing.
	token, user, err := auther.SignUp(ctx, "Second", "Taken@Example.com", "password-two")
	require.Error(t, err)
	assert.ErrorIs(t, err, subtrack.ErrUserExists)
	assert.Empty(t, token)
	assert.Nil(t, user)

	users, err := repo.Users().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1, "the failed registration must not leave a partial row")
}

func TestAutherSignIn(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	auther := subtrack.NewAuthenticator(repo, defTestConfig())

	_, _, err := auther.SignUp(ctx, "Test User", "signin@example.com", "correct-password")
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		token, err := auther.SignIn(ctx, "signin@example.com", "correct-password")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		_, err = auther.SessionFromToken(token)
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		token, err := auther.SignIn(ctx, "signin@example.com", "wrong-password")
		require.Error(t, err)
		assert.ErrorIs(t, err, subtrack.ErrInvalidPassword)
		assert.Empty(t, token)
	})

	t.Run("unknown email", func(t *testing.T) {
		token, err := auther.SignIn(ctx, "nobody@example.com", "whatever")
		require.Error(t, err)
		assert.ErrorIs(t, err, subtrack.ErrUserNotFound)
		assert.Empty(t, token)
	})
}

func TestAutherDeterministicIDs(t *testing.T) {
	ctx := context.Background()
	cfg := defTestConfig()

	first := subtrack.NewAuthenticator(newTestRepo(t), cfg).WithDeterministicIDs()
	second := subtrack.NewAuthenticator(newTestRepo(t), cfg).WithDeterministicIDs()

	_, userA, err := first.SignUp(ctx, "Fixture", "fixture@example.com", "password")
	require.NoError(t, err)

	_, userB, err := second.SignUp(ctx, "Fixture", "Fixture@Example.com", "password")
	require.NoError(t, err)

	assert.Equal(t, userA.ID, userB.ID, "same email derives the same id across databases")
}

func TestUsersRepositoryListAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, email := range []string{"first@example.com", "second@example.com"} {
		_, err := repo.Users().Register(ctx, &subtrack.User{
			Name:         "Listed User",
			Email:        email,
			PasswordHash: "x",
		})
		require.NoError(t, err)
	}

	users, err := repo.Users().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestUsersRepositoryGetByEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Users().Register(ctx, &subtrack.User{
		Name:         "Lookup User",
		Email:        "Lookup@Example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		user, err := repo.Users().GetByEmail(ctx, "LOOKUP@example.COM")
		require.NoError(t, err)
		assert.Equal(t, "lookup@example.com", user.Email)
	})

	t.Run("missing email maps to record not found", func(t *testing.T) {
		_, err := repo.Users().GetByEmail(ctx, "missing@example.com")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}
