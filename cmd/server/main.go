package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/subtrackd/subtrack"
	"github.com/subtrackd/subtrack/config"
	"github.com/subtrackd/subtrack/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.New()

	level := glog.Info
	if !cfg.IsProduction() {
		level = glog.Trace
	}

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("subtrack"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	if err := run(cfg, lgr); err != nil {
		lgr.GetLogger("main").Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, lgr *glog.BaseLogger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !cfg.IsProduction() {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg))
		fmt.Println("============")
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := subtrack.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	auther := subtrack.NewAuthenticator(repo, cfg).
		WithLogger(lgr.GetLogger("auth"))
	if cfg.Auth.DeterministicIDs {
		auther = auther.WithDeterministicIDs()
	}

	sweeper := subtrack.NewRenewalSweeper(repo, cfg.Sweeper.Schedule, lgr.GetLogger("sweeper"))
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	srv := server.New(cfg, repo, auther,
		server.WithLogger(lgr.GetLogger("http")),
	)

	errCh := make(chan error, 1)
	go func() {
		lgr.GetLogger("http").Info("Subscription Tracker API is running", "addr", cfg.Addr())
		errCh <- srv.Listen()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		lgr.GetLogger("main").Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openDatabase(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	subtrack.RegisterModels(db)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := subtrack.CreateSchema(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}
