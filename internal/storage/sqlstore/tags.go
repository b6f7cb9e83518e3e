package sqlstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/UkralStul/course-qa-service/internal/domain"
)

// findOrCreateTag ищет тег по нормализованному имени и создаёт его при отсутствии.
// Уникальность обеспечивается только этой проверкой, без ограничения в БД.
func findOrCreateTag(tx *gorm.DB, name string) (*domain.Tag, error) {
	var tags []*domain.Tag
	if err := tx.Where("name = ?", name).Order("id ASC").Limit(1).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		return tags[0], nil
	}
	tag := &domain.Tag{Name: name}
	if err := tx.Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *Store) CreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	var tag *domain.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tag, err = findOrCreateTag(tx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *Store) GetTags(ctx context.Context) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	err := s.db.WithContext(ctx).Order("id ASC").Find(&tags).Error
	return tags, err
}

func (s *Store) GetTagByID(ctx context.Context, id int64) (*domain.Tag, error) {
	var tag domain.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, translate(err, "tag", id)
	}
	return &tag, nil
}

func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	var tag domain.Tag
	if err := s.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&tag).Error; err != nil {
		return nil, translate(err, "tag", name)
	}
	return &tag, nil
}

func (s *Store) UpdateTag(ctx context.Context, id int64, name string) (*domain.Tag, error) {
	var tag domain.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, "id = ?", id).Error; err != nil {
			return translate(err, "tag", id)
		}
		var taken int64
		if err := tx.Model(&domain.Tag{}).Where("name = ? AND id <> ?", name, id).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("tag %q already exists: %w", name, domain.ErrConflict)
		}
		tag.Name = name
		return tx.Model(&tag).Update("name", name).Error
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &domain.Tag{}, "tag", id); err != nil {
			return err
		}
		if err := tx.Where("tag_id = ?", id).Delete(&domain.QuestionTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Tag{}, id).Error
	})
}
