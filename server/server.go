package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	flogger "github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/subtrackd/subtrack"
	"github.com/subtrackd/subtrack/config"
	"github.com/subtrackd/subtrack/middleware/jwtware"
)

const apiPrefix = "/api/v1"

// Server is the HTTP surface of the subscription tracker
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	repo   subtrack.RepositoryManager
	auther *subtrack.Auther
	logger subtrack.Logger
}

type Option func(*Server)

func WithLogger(logger subtrack.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New builds the fiber app, wires the shared error normalizer and registers
// every route.
func New(cfg *config.Config, repo subtrack.RepositoryManager, auther *subtrack.Auther, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		repo:   repo,
		auther: auther,
		logger: nopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "Subscription Tracker API",
		ErrorHandler:          s.handleError,
		DisableStartupMessage: cfg.IsProduction(),
	})

	s.app.Use(compress.New())
	if !cfg.IsProduction() {
		s.app.Use(flogger.New())
	}

	s.registerRoutes()

	return s
}

// App exposes the underlying fiber instance, mainly for app.Test in tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on the configured address
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Addr())
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	deadline := 5 * time.Second
	if t, ok := ctx.Deadline(); ok {
		deadline = time.Until(t)
	}
	return s.app.ShutdownWithTimeout(deadline)
}

func (s *Server) registerRoutes() {
	protected := s.protectedRoute()

	api := s.app.Group(apiPrefix)

	auth := api.Group("/auth")
	auth.Post("/sign-up", s.signUp)
	auth.Post("/sign-in", s.signIn)
	auth.Post("/sign-out", s.signOut)

	users := api.Group("/users")
	users.Get("/", s.listUsers)
	users.Get("/:id", protected, s.showUser)
	users.Post("/", s.createUserPlaceholder)
	users.Put("/:id", s.updateUserPlaceholder)
	users.Delete("/:id", s.deleteUserPlaceholder)

	subs := api.Group("/subscriptions")
	subs.Get("/", s.listSubscriptions)
	// Static segments must register before the ":id" routes or fiber will
	// swallow them as identifiers.
	subs.Get("/upcoming-renewals", protected, s.upcomingRenewals)
	subs.Get("/user/:id", protected, s.listUserSubscriptions)
	subs.Post("/", protected, s.createSubscription)
	subs.Get("/:id", protected, s.showSubscription)
	subs.Put("/:id/cancel", protected, s.cancelSubscription)
	subs.Put("/:id", protected, s.updateSubscription)
	subs.Delete("/:id", protected, s.deleteSubscription)
}

// protectedRoute builds the bearer middleware: extract, validate, resolve the
// user, reject everything else with the one generic 401.
func (s *Server) protectedRoute() fiber.Handler {
	return jwtware.New(jwtware.Config{
		AuthScheme:     s.cfg.GetAuthScheme(),
		ContextKey:     "claims",
		UserKey:        s.cfg.GetContextKey(),
		TokenValidator: tokenValidatorAdapter{ts: s.auther.TokenService()},
		UserResolver: func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
			user, err := s.auther.IdentityFromClaims(ctx, claims)
			if err != nil {
				return nil, err
			}
			return user, nil
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Deliberately generic: callers learn nothing about which check
			// failed. Detail goes to the log only.
			s.logger.Info("rejected unauthenticated request",
				"path", c.Path(),
				"error", err,
			)
			return subtrack.ErrUnauthorized
		},
	})
}

// tokenValidatorAdapter bridges the root TokenService to the middleware's
// cycle-free validator interface.
type tokenValidatorAdapter struct {
	ts subtrack.TokenService
}

func (a tokenValidatorAdapter) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := a.ts.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// currentUser returns the user record attached by the bearer middleware
func (s *Server) currentUser(c *fiber.Ctx) (*subtrack.User, bool) {
	user, ok := c.Locals(s.cfg.GetContextKey()).(*subtrack.User)
	return user, ok
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
