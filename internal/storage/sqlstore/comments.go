package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/UkralStul/course-qa-service/internal/domain"
)

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	// Валидация до любой записи
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	target, _ := comment.Target()
	model, err := targetModel(target)
	if err != nil {
		return nil, err
	}

	c := *comment
	c.Author = nil
	c.QuestionID, c.AnswerID = target.Columns()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, model, target.Kind.String(), target.ID); err != nil {
			return err
		}
		if err := mustExist(tx, &domain.User{}, "user", c.UserID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetCommentByID(ctx, c.ID)
}

func (s *Store) GetCommentByID(ctx context.Context, id int64) (*domain.Comment, error) {
	var c domain.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "comment", id)
	}
	return &c, nil
}

func (s *Store) GetCommentsByTarget(ctx context.Context, target domain.Target) ([]*domain.Comment, error) {
	where, id := target.Predicate()
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where(where, id).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (s *Store) UpdateComment(ctx context.Context, id int64, body string) (*domain.Comment, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &domain.Comment{}, "comment", id); err != nil {
			return err
		}
		return tx.Model(&domain.Comment{}).Where("id = ?", id).Updates(map[string]any{
			"body":       body,
			"updated_at": time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetCommentByID(ctx, id)
}

func (s *Store) DeleteComment(ctx context.Context, id, userID int64) (bool, error) {
	// Владелец проверяется прямо в WHERE
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Comment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// === Dataloader Method ===

func (s *Store) GetCommentsByAnswerIDs(ctx context.Context, answerIDs []int64) (map[int64][]*domain.Comment, error) {
	result := make(map[int64][]*domain.Comment, len(answerIDs))
	if len(answerIDs) == 0 {
		return result, nil
	}

	var comments []*domain.Comment
	// Загружаем комментарии всех переданных ответов одним запросом
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("answer_id IN ?", answerIDs).
		Order("answer_id, created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		if c.AnswerID != nil {
			result[*c.AnswerID] = append(result[*c.AnswerID], c)
		}
	}
	return result, nil
}
