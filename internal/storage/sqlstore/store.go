package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/storage"
)

// Config - параметры подключения к реляционной БД.
type Config struct {
	Driver            string // postgres или mysql
	DSN               string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
	ConnectRetries    int
	ConnectRetryDelay time.Duration
	LogLevel          logger.LogLevel
}

// Store реализует интерфейс Storage поверх GORM (PostgreSQL или MySQL).
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// Dialector выбирает драйвер GORM по имени.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// GormLogger пишет SQL-лог GORM через logrus.
func GormLogger(level logger.LogLevel) logger.Interface {
	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Open подключается к БД, повторяя попытки, пока база не станет доступна.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return open(ctx, dialector, cfg)
}

func open(ctx context.Context, dialector gorm.Dialector, cfg Config) (*Store, error) {
	var err error
	log := logrus.WithField("component", "sqlstore")
	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var store *Store
	for i := 1; i <= attempts; i++ {
		store, err = New(dialector, &gorm.Config{Logger: GormLogger(cfg.LogLevel)})
		if err == nil {
			if err = store.Ping(ctx); err != nil {
				store.Close()
			}
		}
		if err == nil {
			break
		}
		log.WithError(err).Warnf("database connection failed, retrying in %s (%d/%d)", cfg.ConnectRetryDelay, i, attempts)
		if i == attempts {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectRetryDelay):
		}
	}

	sqlDB, err := store.db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	log.WithField("driver", cfg.Driver).Info("database connected")
	return store, nil
}

// New создает хранилище поверх готового диалекта GORM.
func New(dialector gorm.Dialector, cfg *gorm.Config) (*Store, error) {
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		// gorm.Open мог успеть открыть пул до неудачного ping.
		if db != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				sqlDB.Close()
			}
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Связующая таблица question_tags описана явной моделью.
	if err := db.SetupJoinTable(&domain.Question{}, "Tags", &domain.QuestionTag{}); err != nil {
		return nil, fmt.Errorf("failed to set up question_tags: %w", err)
	}
	return &Store{db: db}, nil
}

// Migrate выполняет миграцию схемы.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&domain.User{},
		&domain.Course{},
		&domain.Tag{},
		&domain.Question{},
		&domain.QuestionTag{},
		&domain.Answer{},
		&domain.Comment{},
		&domain.Vote{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return s.ensureAIUser(ctx)
}

// ensureAIUser создает пользователя ИИ (id 1), от имени которого пишутся сгенерированные ответы.
func (s *Store) ensureAIUser(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("id = ?", domain.AIUserID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		ai := &domain.User{
			ID:        domain.AIUserID,
			FirstName: "AI",
			LastName:  "Assistant",
			Email:     "ai@example.com",
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(ai).Error; err != nil {
			return err
		}
		if tx.Dialector.Name() == "postgres" {
			// Явный id не сдвигает последовательность users_id_seq.
			return tx.Exec("SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT MAX(id) FROM users))").Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create ai user: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate переводит gorm.ErrRecordNotFound в domain.ErrNotFound.
func translate(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s with id %v: %w", entity, id, domain.ErrNotFound)
	}
	return err
}

// mustExist проверяет существование строки по первичному ключу.
func mustExist(tx *gorm.DB, model any, entity string, id int64) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%s with id %d: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}

// lockTarget блокирует строку цели (SELECT ... FOR UPDATE) до конца транзакции.
// Голоса одной цели так изменяются строго по очереди, даже когда строки голоса ещё нет.
func lockTarget(tx *gorm.DB, model any, entity string, id int64) error {
	var ids []int64
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Model(model).
		Where("id = ?", id).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%s with id %d: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return &user, nil
}

// === Course Methods ===

func (s *Store) CreateCourse(ctx context.Context, course *domain.Course) (*domain.Course, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Course{}).Where("name = ?", course.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("course with this name already exists: %w", domain.ErrConflict)
		}
		return tx.Create(course).Error
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (s *Store) GetCourses(ctx context.Context) ([]*domain.Course, error) {
	var courses []*domain.Course
	err := s.db.WithContext(ctx).Order("id ASC").Find(&courses).Error
	return courses, err
}

func (s *Store) GetCourseByID(ctx context.Context, id int64) (*domain.Course, error) {
	var course domain.Course
	if err := s.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, translate(err, "course", id)
	}
	return &course, nil
}

func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &domain.Course{}, "course", id); err != nil {
			return err
		}
		var questions int64
		if err := tx.Model(&domain.Question{}).Where("course_id = ?", id).Count(&questions).Error; err != nil {
			return err
		}
		if questions > 0 {
			return fmt.Errorf("course %d still has questions: %w", id, domain.ErrConflict)
		}
		return tx.Delete(&domain.Course{}, id).Error
	})
}
