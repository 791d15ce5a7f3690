package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ovaphlow/pitchfork/service-spots/internal/config"
	"github.com/ovaphlow/pitchfork/service-spots/internal/migrations"
	"github.com/ovaphlow/pitchfork/service-spots/internal/router"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/database"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/utilities"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the latest migration and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// init logger
	lg, err := utilities.InitLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-spots")

	// init db
	db, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateDown {
		if err := database.MigrateDown(ctx, db.DB, migrations.Migrations); err != nil {
			sugar.Fatalf("migrate down: %v", err)
		}
		sugar.Info("rolled back one migration")
		return
	}
	if err := database.Migrate(ctx, db.DB, migrations.Migrations); err != nil {
		sugar.Fatalf("migrate: %v", err)
	}

	handler, err := router.RegisterRoutes(sugar, db, cfg)
	if err != nil {
		sugar.Fatalf("routes: %v", err)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// run server in background
	go func() {
		sugar.Infow("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
