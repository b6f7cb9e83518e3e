package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/course-qa-service/internal/ai"
	"github.com/UkralStul/course-qa-service/internal/auth"
	"github.com/UkralStul/course-qa-service/internal/config"
	"github.com/UkralStul/course-qa-service/internal/forum"
	"github.com/UkralStul/course-qa-service/internal/httpapi"
	"github.com/UkralStul/course-qa-service/internal/live"
	"github.com/UkralStul/course-qa-service/internal/storage"
	"github.com/UkralStul/course-qa-service/internal/storage/inmemory"
	"github.com/UkralStul/course-qa-service/internal/storage/sqlstore"
)

func runServe(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logrus.WithField("component", "server")

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var gen ai.Generator = ai.Disabled{}
	if cfg.AI.URL != "" {
		gen = ai.NewClient(cfg.AI.URL, cfg.AI.APIKey, cfg.AI.Timeout)
	} else {
		log.Warn("ai.url is not set, ai answers are disabled")
	}
	if cfg.Auth.AllowClientUserID {
		log.Warn("client-supplied user ids are accepted, do not use in production")
	}

	svc := forum.NewService(store, gen, live.NewHub(cfg.Live.SubscriberBuffer))
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: httpapi.NewRouter(svc, auth.New(cfg.Auth.JWTSecret, cfg.Auth.AllowClientUserID)),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStorage открывает хранилище по настройкам.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	log := logrus.WithField("component", "server")

	if cfg.Storage.Type == config.StorageInMemory {
		log.Info("starting with in-memory storage")
		store := inmemory.New()
		if cfg.Storage.SeedMockData {
			// Заполним данными для тестов
			if err := fillWithMockData(ctx, store); err != nil {
				return nil, err
			}
		}
		return store, nil
	}

	log.WithField("driver", cfg.Database.Driver).Info("starting with sql storage")
	store, err := sqlstore.Open(ctx, sqlConfig(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}
