package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"chat-relay/auth"
	"chat-relay/httpapi"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/routing"
	wstransport "chat-relay/transport/ws"
	"chat-relay/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes every component and manages the server lifecycle so that
// deferred cleanup (database close, worker drain) executes on every exit
// path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.NewLogger(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Stores & routing core
	accounts := repositories.NewAccountRepository(db)
	groups := repositories.NewGroupRepository(db)
	messages := repositories.NewMessageRepository(db, log, config.LimitMessages)

	censor, err := moderation.NewDefaultModerator(censoredRune(config.CensoredChar))
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	registry := routing.NewRegistry(log)
	resolver := routing.NewResolver(groups, log)
	router := routing.NewRouter(registry, resolver, messages, censor, log)
	relay := routing.NewRelay(registry, log)

	// 4. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised background workers
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewTelemetryReporter(log, registry, config.TelemetryInterval))
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		sup.Run(ctx)
	}()

	// 6. HTTP & WebSocket surface
	tokens := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	api := httpapi.NewAPI(accounts, groups, messages, tokens, registry, log)
	realtime := wstransport.NewHandler(registry, resolver, router, relay, log, config.SendBufferSize)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{
		Addr:    address,
		Handler: httpapi.SetupRouter(ctx, api, realtime, config.Debug),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Server started", "address", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	sup.Stop()
	<-supervisorDone
	log.Info("Server exited cleanly")

	return nil
}

func censoredRune(s string) rune {
	for _, r := range s {
		return r
	}
	return '*'
}
