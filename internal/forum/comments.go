package forum

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/course-qa-service/internal/ai"
	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/live"
)

// NewComment - данные для создания комментария. Задается ровно один из QuestionID / AnswerID.
type NewComment struct {
	QuestionID *int64
	AnswerID   *int64
	UserID     int64
	Body       string
}

func (s *Service) CreateComment(ctx context.Context, in NewComment) (*domain.CommentView, error) {
	fields := logrus.Fields{"user_id": in.UserID}
	comment := &domain.Comment{
		Body:       in.Body,
		UserID:     in.UserID,
		QuestionID: in.QuestionID,
		AnswerID:   in.AnswerID,
	}
	// Ни одной записи, пока родитель и тело не проверены
	if err := comment.Validate(); err != nil {
		return nil, s.logged(err, "invalid comment", fields)
	}
	target, _ := comment.Target()
	comment.QuestionID, comment.AnswerID = target.Columns()
	created, err := s.store.CreateComment(ctx, comment)
	if err != nil {
		return nil, s.logged(err, "failed to create comment", fields)
	}
	return s.publishComment(ctx, created), nil
}

// GenerateComment просит ИИ прокомментировать вопрос или ответ и сохраняет комментарий
// от имени пользователя ИИ.
func (s *Service) GenerateComment(ctx context.Context, questionID, answerID *int64) (*domain.CommentView, error) {
	target, err := domain.TargetOf(questionID, answerID)
	if err != nil {
		return nil, s.logged(err, "invalid ai comment target", nil)
	}
	fields := logrus.Fields{"target": target.String()}

	var text string
	switch target.Kind {
	case domain.TargetQuestion:
		q, err := s.store.GetQuestionByID(ctx, target.ID)
		if err != nil {
			return nil, s.logged(err, "failed to load question for ai comment", fields)
		}
		text = q.Title + "\n" + q.Body
	default:
		a, err := s.store.GetAnswerByID(ctx, target.ID)
		if err != nil {
			return nil, s.logged(err, "failed to load answer for ai comment", fields)
		}
		text = a.Body
	}

	body, err := s.gen.Generate(ctx, ai.CommentPrompt(text))
	if err != nil {
		return nil, s.logged(err, "failed to generate ai comment", fields)
	}
	// Ответ модели может не уложиться в лимит комментария.
	comment := &domain.Comment{Body: domain.TruncateCommentBody(body), UserID: domain.AIUserID}
	comment.QuestionID, comment.AnswerID = target.Columns()
	created, err := s.store.CreateComment(ctx, comment)
	if err != nil {
		return nil, s.logged(err, "failed to store ai comment", fields)
	}
	return s.publishComment(ctx, created), nil
}

func (s *Service) publishComment(ctx context.Context, c *domain.Comment) *domain.CommentView {
	view := domain.NewCommentView(c)
	if target, err := c.Target(); err == nil {
		if questionID, err := s.questionOf(ctx, target); err == nil {
			s.hub.Publish(questionID, live.EventCommentCreated, view)
		}
	}
	return view
}

// ListComments возвращает комментарии вопроса или ответа в порядке создания.
func (s *Service) ListComments(ctx context.Context, questionID, answerID *int64) ([]*domain.CommentView, error) {
	target, err := domain.TargetOf(questionID, answerID)
	if err != nil {
		return nil, s.logged(err, "invalid comment parent", nil)
	}
	comments, err := s.store.GetCommentsByTarget(ctx, target)
	if err != nil {
		return nil, s.logged(err, "failed to list comments", logrus.Fields{"target": target.String()})
	}
	return domain.NewCommentViews(comments), nil
}

// UpdateComment меняет текст комментария. Менять может только автор.
func (s *Service) UpdateComment(ctx context.Context, id, userID int64, body string) (*domain.CommentView, error) {
	fields := logrus.Fields{"comment_id": id, "user_id": userID}
	if err := domain.ValidateCommentBody(body); err != nil {
		return nil, s.logged(err, "invalid comment update", fields)
	}
	c, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return nil, s.logged(err, "failed to load comment", fields)
	}
	if c.UserID != userID {
		err := fmt.Errorf("%w: user %d does not own comment %d", domain.ErrForbidden, userID, id)
		return nil, s.logged(err, "comment update rejected", fields)
	}
	updated, err := s.store.UpdateComment(ctx, id, body)
	if err != nil {
		return nil, s.logged(err, "failed to update comment", fields)
	}
	return domain.NewCommentView(updated), nil
}

// DeleteComment удаляет комментарий автора. Чужой или отсутствующий комментарий - Success: false.
func (s *Service) DeleteComment(ctx context.Context, id, userID int64) (domain.DeleteResult, error) {
	ok, err := s.store.DeleteComment(ctx, id, userID)
	if err != nil {
		return notDeleted("Failed to delete comment"), s.logged(err, "failed to delete comment", logrus.Fields{"comment_id": id, "user_id": userID})
	}
	if !ok {
		return notDeleted("Comment not found or not owned by user"), nil
	}
	return deleted("Comment"), nil
}
