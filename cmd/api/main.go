package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/demandas/internal/auth"
	"github.com/gestaozabele/demandas/internal/config"
	"github.com/gestaozabele/demandas/internal/db"
	internalhttp "github.com/gestaozabele/demandas/internal/http"
	"github.com/gestaozabele/demandas/internal/mail"
	"github.com/gestaozabele/demandas/internal/repo"
	"github.com/gestaozabele/demandas/internal/service"
	"github.com/gestaozabele/demandas/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	queries := repo.New(pool)
	tokens := auth.NewTokenManager(cfg.Token)

	var sender mail.Sender
	if cfg.SMTP.Host != "" {
		sender, err = mail.NewSMTPSender(cfg.SMTP)
		if err != nil {
			return fmt.Errorf("smtp: %w", err)
		}
	} else {
		log.Warn().Msg("SMTP_HOST ausente; e-mails serão descartados")
		sender = mail.NoopSender{}
	}

	dispatcher := mail.NewDispatcher(sender, 64)
	dispatcher.Start(ctx)
	defer func() {
		cancel()
		dispatcher.Wait()
	}()

	authService := service.NewAuthService(queries, redisClient, tokens, dispatcher, cfg.SessaoUnica, cfg.BaseURL)

	var uploader storage.Uploader = storage.NoopUploader{}
	if cfg.S3.Endpoint != "" {
		uploader, err = storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			PublicDomain: cfg.S3.PublicDomain,
		})
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	} else {
		log.Warn().Msg("S3_ENDPOINT ausente; anexos de demanda desabilitados")
	}

	handler := internalhttp.NewRouter(cfg, pool, redisClient, queries, authService, uploader)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return nil
}
