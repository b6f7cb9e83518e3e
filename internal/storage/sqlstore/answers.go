package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/UkralStul/course-qa-service/internal/domain"
)

// === Answer Methods ===

func (s *Store) CreateAnswer(ctx context.Context, answer *domain.Answer) (*domain.Answer, error) {
	a := *answer
	a.Author = nil
	a.IsAccepted, a.Score = false, 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &domain.Question{}, "question", a.QuestionID); err != nil {
			return err
		}
		if err := mustExist(tx, &domain.User{}, "user", a.UserID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetAnswerByID(ctx, a.ID)
}

func (s *Store) GetAnswerByID(ctx context.Context, id int64) (*domain.Answer, error) {
	var a domain.Answer
	if err := s.db.WithContext(ctx).Preload("Author").First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err, "answer", id)
	}
	return &a, nil
}

func (s *Store) GetAnswersByQuestionID(ctx context.Context, questionID int64) ([]*domain.Answer, error) {
	var answers []*domain.Answer
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("question_id = ?", questionID).
		Order("is_accepted DESC, score DESC, created_at ASC, id ASC").
		Find(&answers).Error
	return answers, err
}

func (s *Store) UpdateAnswer(ctx context.Context, id int64, upd domain.AnswerUpdate) (*domain.Answer, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &domain.Answer{}, "answer", id); err != nil {
			return err
		}
		return tx.Model(&domain.Answer{}).Where("id = ?", id).Updates(map[string]any{
			"body":         upd.Body,
			"is_anonymous": upd.IsAnonymous,
			"updated_at":   time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetAnswerByID(ctx, id)
}

// deleteAnswerTx удаляет ответ вместе с его комментариями и голосами.
func deleteAnswerTx(tx *gorm.DB, id int64) error {
	if err := tx.Where("answer_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("answer_id = ?", id).Delete(&domain.Vote{}).Error; err != nil {
		return err
	}
	return tx.Delete(&domain.Answer{}, id).Error
}

func (s *Store) DeleteAnswer(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Answer{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		if err := deleteAnswerTx(tx, id); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (s *Store) AcceptAnswer(ctx context.Context, id int64) (*domain.Answer, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a domain.Answer
		if err := tx.First(&a, "id = ?", id).Error; err != nil {
			return translate(err, "answer", id)
		}
		now := time.Now().UTC()
		err := tx.Model(&domain.Answer{}).
			Where("question_id = ? AND is_accepted = ? AND id <> ?", a.QuestionID, true, id).
			Updates(map[string]any{"is_accepted": false, "updated_at": now}).Error
		if err != nil {
			return err
		}
		return tx.Model(&domain.Answer{}).Where("id = ?", id).
			Updates(map[string]any{"is_accepted": true, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetAnswerByID(ctx, id)
}
