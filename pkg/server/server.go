package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"formrelay/pkg/core"
	"formrelay/pkg/discord"
	"formrelay/pkg/relay"
)

// RunConfig loads config from a path and starts the server with signal handling.
func RunConfig(configPath string) error {
	logger := core.NewLogger("server")
	config, err := core.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return Run(ctx, config, logger)
}

// buildHandler assembles the contact endpoint, the health check, and
// the CORS and logging layers into a single handler.
func buildHandler(config core.Config, logger *log.Logger) (http.Handler, error) {
	client := discord.New(discord.Config{
		WebhookURL: config.Discord.WebhookURL,
		Timeout:    time.Duration(config.Discord.TimeoutMS) * time.Millisecond,
	})

	contact, err := relay.NewHandler(relay.Options{
		Notifier:        client,
		Logger:          core.NewLogger("relay"),
		MaxBodyBytes:    config.Server.MaxBodyBytes,
		SenderName:      config.Discord.Username,
		EnforceSecret:   config.Auth.Enforce,
		Secret:          config.Auth.Secret,
		SecretHeader:    config.Auth.Header,
		SurfaceFailures: config.Delivery.SurfaceFailures,
		DeliveryTimeout: time.Duration(config.Discord.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("contact handler: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(config.Contact.Path, contact)
	mux.Handle("/healthz", healthHandler())

	corsOptions := cors.Options{
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         int(2 * time.Hour / time.Second),
	}
	if len(config.CORS.AllowedOrigins) > 0 {
		corsOptions.AllowedOrigins = config.CORS.AllowedOrigins
	} else {
		corsOptions.AllowOriginFunc = func(_ string) bool { return true }
	}
	corsHandler := cors.New(corsOptions)

	wrapped := applyMiddlewares(mux, []Middleware{requestLogMiddleware(logger)})
	return h2c.NewHandler(corsHandler.Handler(wrapped), &http2.Server{}), nil
}

// Run starts the server until the context is canceled.
func Run(ctx context.Context, config core.Config, logger *log.Logger) error {
	handler, err := buildHandler(config, logger)
	if err != nil {
		return err
	}

	if config.Discord.WebhookURL == "" {
		logger.Printf("discord webhook url is empty: submissions will be accepted but not forwarded")
	} else {
		logger.Printf("discord webhook=enabled username=%q timeout_ms=%d", config.Discord.Username, config.Discord.TimeoutMS)
	}
	logger.Printf("contact endpoint path=%s auth_enforced=%t surface_failures=%t", config.Contact.Path, config.Auth.Enforce, config.Delivery.SurfaceFailures)

	addr := ":" + strconv.Itoa(config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(config.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:      time.Duration(config.Server.WriteTimeoutMS) * time.Millisecond,
		IdleTimeout:       time.Duration(config.Server.IdleTimeoutMS) * time.Millisecond,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderMS) * time.Millisecond,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	}
}
