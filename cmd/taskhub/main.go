package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhub/internal/attachments"
	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/db"
	"taskhub/internal/httpserver"
	"taskhub/internal/logging"
	"taskhub/internal/tasks"
)

func main() {
	ctx := context.Background()
	logger := logging.New()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn, "sql"); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userStore := auth.NewPostgresUserStore(dbConn)
	if err := auth.EnsureAdmin(ctx, userStore, cfg.AdminSeedPath); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	secret := []byte(cfg.JWTSecret)
	issuer := auth.NewTokenIssuer(secret, cfg.JWTIssuer, cfg.JWTAudience)
	validator := auth.NewTokenValidator(secret, cfg.JWTIssuer, cfg.JWTAudience)
	authSvc := auth.NewService(userStore, issuer)

	taskStore := tasks.NewPostgresStore(dbConn)
	attachmentStore := attachments.NewPostgresStore(dbConn)
	storage, err := attachments.NewDiskStorage(cfg.UploadDir)
	if err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	handler := httpserver.NewRouter(logger, authSvc, validator, taskStore, attachmentStore, storage)
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
