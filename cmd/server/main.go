package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vendora_back_end/internal/config"
	"vendora_back_end/internal/database"
	"vendora_back_end/internal/jobs"
	"vendora_back_end/internal/routes"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
)

func main() {
	cfg, envErr := config.Load()

	logger := config.InitLogger(cfg)
	defer func() { _ = logger.Sync() }()
	if envErr != nil {
		zap.S().Warnf("⚠️ Fichier .env non chargé: %v", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDatabases(ctx, cfg); err != nil {
		zap.S().Fatalf("❌ Connexion aux bases impossible: %v", err)
	}
	if err := database.EnsureIndexes(ctx); err != nil {
		zap.S().Warnf("⚠️ Index MongoDB: %v", err)
	}
	store.UseMongo(database.Mongo)

	services.InitStripe(cfg)
	config.InitOAuthProviders(cfg)

	var scheduler *jobs.Scheduler
	if cfg.CronEnabled {
		var err error
		if scheduler, err = jobs.Start(cfg); err != nil {
			zap.S().Errorf("❌ Planificateur non démarré: %v", err)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	routes.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infof("🚀 Serveur Vendora lancé sur le port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalf("❌ Serveur HTTP: %v", err)
		}
	}()

	<-ctx.Done()
	zap.S().Info("🛑 Arrêt demandé, fermeture en cours...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("❌ Arrêt du serveur: %v", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	database.Disconnect(shutdownCtx)
	zap.S().Info("👋 Serveur arrêté")
}
