// Package forum связывает хранилище, генератор ИИ и ленту событий в операции форума.
package forum

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/course-qa-service/internal/ai"
	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/live"
	"github.com/UkralStul/course-qa-service/internal/logging"
	"github.com/UkralStul/course-qa-service/internal/storage"
)

// Service реализует операции форума поверх Storage.
type Service struct {
	store storage.Storage
	gen   ai.Generator
	hub   *live.Hub
	log   *logrus.Entry
}

// NewService создает сервис. gen и hub могут быть nil.
func NewService(store storage.Storage, gen ai.Generator, hub *live.Hub) *Service {
	if gen == nil {
		gen = ai.Disabled{}
	}
	if hub == nil {
		hub = live.NewHub(1)
	}
	return &Service{
		store: store,
		gen:   gen,
		hub:   hub,
		log:   logging.Component("forum"),
	}
}

// Hub возвращает ленту событий, на которую подписываются websocket-клиенты.
func (s *Service) Hub() *live.Hub { return s.hub }

// Storage возвращает хранилище сервиса.
func (s *Service) Storage() storage.Storage { return s.store }

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// logged пишет ошибку в лог и возвращает ее без изменений.
// Ожидаемые ошибки (не найдено, валидация и т.п.) пишутся на уровне debug.
func (s *Service) logged(err error, msg string, fields logrus.Fields) error {
	if err == nil {
		return nil
	}
	entry := s.log.WithFields(fields).WithError(err)
	if isExpected(err) {
		entry.Debug(msg)
	} else {
		entry.Error(msg)
	}
	return err
}

func isExpected(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrUnauthorized)
}

func deleted(entity string) domain.DeleteResult {
	return domain.DeleteResult{Success: true, Message: entity + " deleted successfully"}
}

func notDeleted(msg string) domain.DeleteResult {
	return domain.DeleteResult{Success: false, Message: msg}
}
