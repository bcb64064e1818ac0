package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/quick-poll/app"
	"github.com/mbolis/quick-poll/config"
	"github.com/mbolis/quick-poll/database"
	"github.com/mbolis/quick-poll/log"
	"github.com/mbolis/quick-poll/routes"
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Fatal("main.config.env:", err)
	}
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	app := app.New(db, cfg)

	if cfg.AdminUser != "" {
		if err := app.Accounts.Ensure(context.Background(), cfg.AdminUser, cfg.AdminPassword); err != nil {
			log.Fatal("main.db.ensure_account:", err)
		}
		log.Infof("Account %q ready", cfg.AdminUser)
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	idle := make(chan struct{})
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer close(idle)
		sig := <-stop
		log.Infof("Received %s, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("main.server.shutdown:", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		// wait for in-flight requests to drain
		<-idle
	}
	return err
}
