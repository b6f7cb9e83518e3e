package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/storage"
)

// === Question Methods ===

func (s *Store) CreateQuestion(ctx context.Context, question *domain.Question, tagNames []string) (*domain.Question, error) {
	q := *question
	q.Author, q.Course, q.Tags = nil, nil, nil

	// Вопрос, новые теги и связи создаются в одной транзакции, коммит один.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &domain.User{}, "user", q.UserID); err != nil {
			return err
		}
		if err := mustExist(tx, &domain.Course{}, "course", q.CourseID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&q).Error; err != nil {
			return err
		}
		for _, name := range tagNames {
			tag, err := findOrCreateTag(tx, name)
			if err != nil {
				return fmt.Errorf("failed to resolve tag %q: %w", name, err)
			}
			if err := tx.Create(&domain.QuestionTag{QuestionID: q.ID, TagID: tag.ID}).Error; err != nil {
				return fmt.Errorf("failed to link tag %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuestionByID(ctx, q.ID)
}

func (s *Store) GetQuestionByID(ctx context.Context, id int64) (*domain.Question, error) {
	var q domain.Question
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Course").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "question", id)
	}
	return &q, nil
}

func (s *Store) IncrementViewCount(ctx context.Context, id int64) error {
	// Отдельный атомарный UPDATE: параллельные просмотры не теряются.
	res := s.db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("question with id %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateQuestion(ctx context.Context, id int64, upd domain.QuestionUpdate) (*domain.Question, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &domain.Question{}, "question", id); err != nil {
			return err
		}
		return tx.Model(&domain.Question{}).Where("id = ?", id).Updates(map[string]any{
			"title":        upd.Title,
			"body":         upd.Body,
			"is_anonymous": upd.IsAnonymous,
			"updated_at":   time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuestionByID(ctx, id)
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Question{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		var answerIDs []int64
		if err := tx.Model(&domain.Answer{}).Where("question_id = ?", id).Pluck("id", &answerIDs).Error; err != nil {
			return err
		}
		if len(answerIDs) > 0 {
			if err := tx.Where("answer_id IN ?", answerIDs).Delete(&domain.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("answer_id IN ?", answerIDs).Delete(&domain.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("question_id = ?", id).Delete(&domain.Answer{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("question_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&domain.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&domain.QuestionTag{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Question{}, id).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// questionRow - строка списка вопросов с полями из JOIN.
type questionRow struct {
	ID          int64
	Title       string
	Body        string
	UserID      int64
	CourseID    int64
	ViewCount   int64
	Score       int64
	IsAnonymous bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FirstName   string
	LastName    string
	CourseName  string
	AnswerCount int64
}

// listQuery собирает SELECT списка вопросов. Плейсхолдеры "?" GORM переводит под диалект сам.
func listQuery(filter storage.QuestionFilter) (string, []any, error) {
	qb := sq.Select(
		"q.id", "q.title", "q.body", "q.user_id", "q.course_id",
		"q.view_count", "q.score", "q.is_anonymous", "q.created_at", "q.updated_at",
		"u.first_name", "u.last_name", "c.name AS course_name",
		"(SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id) AS answer_count",
	).
		From("questions q").
		Join("users u ON u.id = q.user_id").
		Join("courses c ON c.id = q.course_id").
		OrderBy("q.created_at DESC", "q.id DESC")

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		qb = qb.Where(sq.Or{
			sq.Like{"LOWER(q.title)": pattern},
			sq.Like{"LOWER(q.body)": pattern},
		})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}
	return qb.ToSql()
}

func (s *Store) GetQuestions(ctx context.Context, filter storage.QuestionFilter) ([]*domain.QuestionSummary, error) {
	query, args, err := listQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build question list query: %w", err)
	}

	db := s.db.WithContext(ctx)
	var rows []questionRow
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*domain.QuestionSummary{}, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	// Теги и голоса догружаются пакетно, чтобы не зависеть от GROUP_CONCAT/string_agg конкретной СУБД.
	var tagRows []struct {
		QuestionID int64
		Name       string
	}
	err = db.Table("question_tags").
		Select("question_tags.question_id, tags.name").
		Joins("JOIN tags ON tags.id = question_tags.tag_id").
		Where("question_tags.question_id IN ?", ids).
		Order("tags.id ASC").
		Scan(&tagRows).Error
	if err != nil {
		return nil, err
	}
	tagsByQuestion := make(map[int64][]string, len(rows))
	for _, t := range tagRows {
		tagsByQuestion[t.QuestionID] = append(tagsByQuestion[t.QuestionID], t.Name)
	}

	votes, err := countVotesIn(db, "question_id", "answer_id", ids)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.QuestionSummary, 0, len(rows))
	for _, r := range rows {
		tags := tagsByQuestion[r.ID]
		if tags == nil {
			tags = []string{}
		}
		counts := votes[r.ID]
		out = append(out, &domain.QuestionSummary{
			ID:          r.ID,
			Title:       r.Title,
			Body:        r.Body,
			UserID:      r.UserID,
			CourseID:    r.CourseID,
			CourseName:  r.CourseName,
			ViewCount:   r.ViewCount,
			Score:       r.Score,
			FirstName:   r.FirstName,
			LastName:    r.LastName,
			IsAnonymous: r.IsAnonymous,
			AnswerCount: r.AnswerCount,
			Tags:        tags,
			UpVotes:     counts.UpVotes,
			DownVotes:   counts.DownVotes,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return out, nil
}
