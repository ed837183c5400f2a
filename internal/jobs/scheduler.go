// Package jobs planifie les tâches de maintenance: purge des notifications et
// alertes de stock bas.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vendora_back_end/internal/cache"
	"vendora_back_end/internal/config"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
)

// ReadRetention est l'âge au-delà duquel une notification lue est supprimée.
const ReadRetention = 30 * 24 * time.Hour

const jobTimeout = 2 * time.Minute

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Scheduler struct {
	sched *cron.Cron
}

// Start enregistre les tâches et démarre le planificateur.
func Start(cfg *config.Config) (*Scheduler, error) {
	loc := time.Local
	if cfg.CronLocation != "" {
		l, err := time.LoadLocation(cfg.CronLocation)
		if err != nil {
			return nil, fmt.Errorf("fuseau %q: %w", cfg.CronLocation, err)
		}
		loc = l
	}

	s := &Scheduler{sched: cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))}
	tasks := []struct {
		spec string
		name string
		run  func(context.Context) error
	}{
		{"@daily", "purge notifications lues", CleanupReadNotifications},
		{"@hourly", "purge notifications expirées", PurgeExpiredNotifications},
		{"@every 6h", "alertes stock bas", ScanLowStock},
	}
	for _, t := range tasks {
		t := t
		if _, err := s.sched.AddFunc(t.spec, func() { runTask(t.name, t.run) }); err != nil {
			return nil, fmt.Errorf("tâche %s: %w", t.name, err)
		}
	}

	s.sched.Start()
	zap.S().Infof("⏰ Planificateur démarré (%d tâches)", len(tasks))
	return s, nil
}

// Stop attend la fin des tâches en cours.
func (s *Scheduler) Stop() {
	<-s.sched.Stop().Done()
	zap.S().Info("⏰ Planificateur arrêté")
}

func runTask(name string, run func(context.Context) error) {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Errorf("❌ Tâche %s: panic %v", name, err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx); err != nil {
		zap.S().Errorf("❌ Tâche %s: %v", name, err)
		return
	}
	zap.S().Debugf("Tâche %s terminée en %s", name, time.Since(start))
}

// CleanupReadNotifications supprime les notifications lues de plus de 30 jours.
func CleanupReadNotifications(ctx context.Context) error {
	deleted, err := store.Notifications.DeleteReadOlderThan(ctx, time.Now().Add(-ReadRetention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		zap.S().Infof("🧹 %d notifications lues supprimées", deleted)
	}
	return nil
}

// PurgeExpiredNotifications double l'index TTL Mongo.
func PurgeExpiredNotifications(ctx context.Context) error {
	deleted, err := store.Notifications.DeleteExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if deleted > 0 {
		zap.S().Infof("🧹 %d notifications expirées supprimées", deleted)
	}
	return nil
}

// ScanLowStock prévient les admins des produits sous leur seuil de stock,
// une fois par produit et par jour quand Redis est disponible.
func ScanLowStock(ctx context.Context) error {
	products, err := store.Products.LowStock(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}

	admins, err := store.Users.ListIDs(ctx, store.UserFilter{Role: models.RoleAdmin, ActiveOnly: true})
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		return nil
	}

	now := time.Now()
	alerted := 0
	for _, p := range products {
		first, err := cache.SetOnce(ctx, cache.LowStockKey(p.ID.Hex(), now), cache.LowStockMarker)
		if err != nil {
			zap.S().Warnf("⚠️ Marqueur stock bas %s: %v", p.ID.Hex(), err)
		}
		if !first {
			continue
		}
		services.NotifyMany(ctx, admins, models.NotifLowStock, "Low stock",
			fmt.Sprintf("%s has only %d unit(s) left", p.Name, p.AvailableStock()),
			map[string]interface{}{"productId": p.ID.Hex(), "stock": p.AvailableStock(), "threshold": p.LowStockThreshold})
		alerted++
	}
	if alerted > 0 {
		zap.S().Warnf("📉 %d produit(s) en stock bas signalé(s)", alerted)
	}
	return nil
}
