package forum

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/live"
)

// NewAnswer - данные для создания ответа.
type NewAnswer struct {
	QuestionID  int64
	UserID      int64
	Body        string
	IsAnonymous bool
}

func (s *Service) CreateAnswer(ctx context.Context, in NewAnswer) (*domain.AnswerView, error) {
	fields := logrus.Fields{"question_id": in.QuestionID, "user_id": in.UserID}
	if err := domain.ValidateAnswer(in.Body); err != nil {
		return nil, s.logged(err, "invalid answer", fields)
	}
	a, err := s.store.CreateAnswer(ctx, &domain.Answer{
		Body:        in.Body,
		QuestionID:  in.QuestionID,
		UserID:      in.UserID,
		IsAnonymous: in.IsAnonymous,
	})
	if err != nil {
		return nil, s.logged(err, "failed to create answer", fields)
	}

	view := domain.NewAnswerView(a, domain.VoteCounts{}, nil)
	s.hub.Publish(a.QuestionID, live.EventAnswerCreated, view)
	return view, nil
}

// GenerateAnswer просит ИИ ответить на вопрос и сохраняет ответ от имени пользователя ИИ.
func (s *Service) GenerateAnswer(ctx context.Context, questionID int64) (*domain.AnswerView, error) {
	fields := logrus.Fields{"question_id": questionID}
	q, err := s.store.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, s.logged(err, "failed to load question for ai answer", fields)
	}
	a, err := s.generateAnswer(ctx, q)
	if err != nil {
		return nil, s.logged(err, "failed to generate ai answer", fields)
	}

	view := domain.NewAnswerView(a, domain.VoteCounts{}, nil)
	s.hub.Publish(a.QuestionID, live.EventAnswerCreated, view)
	return view, nil
}

// GetAnswer возвращает ответ с голосами и комментариями.
func (s *Service) GetAnswer(ctx context.Context, id int64) (*domain.AnswerView, error) {
	fields := logrus.Fields{"answer_id": id}
	a, err := s.store.GetAnswerByID(ctx, id)
	if err != nil {
		return nil, s.logged(err, "failed to load answer", fields)
	}
	target := domain.AnswerTarget(id)
	counts, err := s.store.CountVotes(ctx, target)
	if err != nil {
		return nil, s.logged(err, "failed to count answer votes", fields)
	}
	comments, err := s.store.GetCommentsByTarget(ctx, target)
	if err != nil {
		return nil, s.logged(err, "failed to load answer comments", fields)
	}
	return domain.NewAnswerView(a, counts, comments), nil
}

// ownAnswer загружает ответ и проверяет, что его автор - userID.
func (s *Service) ownAnswer(ctx context.Context, id, userID int64) (*domain.Answer, error) {
	a, err := s.store.GetAnswerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, fmt.Errorf("%w: user %d does not own answer %d", domain.ErrForbidden, userID, id)
	}
	return a, nil
}

func (s *Service) UpdateAnswer(ctx context.Context, id, userID int64, upd domain.AnswerUpdate) (*domain.AnswerView, error) {
	fields := logrus.Fields{"answer_id": id, "user_id": userID}
	if err := domain.ValidateAnswer(upd.Body); err != nil {
		return nil, s.logged(err, "invalid answer update", fields)
	}
	if _, err := s.ownAnswer(ctx, id, userID); err != nil {
		return nil, s.logged(err, "answer update rejected", fields)
	}
	if _, err := s.store.UpdateAnswer(ctx, id, upd); err != nil {
		return nil, s.logged(err, "failed to update answer", fields)
	}
	return s.GetAnswer(ctx, id)
}

// DeleteAnswer удаляет ответ автора вместе с его комментариями и голосами.
func (s *Service) DeleteAnswer(ctx context.Context, id, userID int64) (domain.DeleteResult, error) {
	fields := logrus.Fields{"answer_id": id, "user_id": userID}
	if _, err := s.ownAnswer(ctx, id, userID); err != nil {
		return notDeleted("Answer not deleted"), s.logged(err, "answer delete rejected", fields)
	}
	ok, err := s.store.DeleteAnswer(ctx, id)
	if err != nil {
		return notDeleted("Failed to delete answer"), s.logged(err, "failed to delete answer", fields)
	}
	if !ok {
		return notDeleted("Answer not found"), nil
	}
	return deleted("Answer"), nil
}

// AcceptAnswer отмечает ответ принятым. Принять ответ может только автор вопроса.
func (s *Service) AcceptAnswer(ctx context.Context, id, userID int64) (*domain.AnswerView, error) {
	fields := logrus.Fields{"answer_id": id, "user_id": userID}
	a, err := s.store.GetAnswerByID(ctx, id)
	if err != nil {
		return nil, s.logged(err, "failed to load answer", fields)
	}
	q, err := s.store.GetQuestionByID(ctx, a.QuestionID)
	if err != nil {
		return nil, s.logged(err, "failed to load question", fields)
	}
	if q.UserID != userID {
		err := fmt.Errorf("%w: only the question author can accept an answer", domain.ErrForbidden)
		return nil, s.logged(err, "answer accept rejected", fields)
	}
	if _, err := s.store.AcceptAnswer(ctx, id); err != nil {
		return nil, s.logged(err, "failed to accept answer", fields)
	}
	return s.GetAnswer(ctx, id)
}
