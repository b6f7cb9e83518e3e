package forum

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/course-qa-service/internal/ai"
	"github.com/UkralStul/course-qa-service/internal/dataloader"
	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/storage"
)

// NewQuestion - данные для создания вопроса.
type NewQuestion struct {
	Title       string
	Body        string
	UserID      int64
	CourseID    int64
	IsAnonymous bool
	Tags        []string
}

// CreateQuestion создает вопрос с тегами одной транзакцией, затем отдельно
// пытается получить ответ ИИ. Ошибка ИИ не отменяет созданный вопрос.
func (s *Service) CreateQuestion(ctx context.Context, in NewQuestion) (*domain.CreatedQuestion, error) {
	fields := logrus.Fields{"user_id": in.UserID, "course_id": in.CourseID}
	if err := domain.ValidateQuestion(in.Title, in.Body); err != nil {
		return nil, s.logged(err, "invalid question", fields)
	}
	tags, err := domain.NormalizeTagNames(in.Tags)
	if err != nil {
		return nil, s.logged(err, "invalid question tags", fields)
	}

	q, err := s.store.CreateQuestion(ctx, &domain.Question{
		Title:       in.Title,
		Body:        in.Body,
		UserID:      in.UserID,
		CourseID:    in.CourseID,
		IsAnonymous: in.IsAnonymous,
	}, tags)
	if err != nil {
		return nil, s.logged(err, "failed to create question", fields)
	}

	out := domain.NewCreatedQuestion(q)
	answer, err := s.generateAnswer(ctx, q)
	if err != nil {
		s.log.WithError(err).WithField("question_id", q.ID).Warn("question created without ai answer")
		return out, nil
	}
	out.Answers = append(out.Answers, domain.NewAnswerView(answer, domain.VoteCounts{}, nil))
	return out, nil
}

// generateAnswer просит у ИИ ответ на вопрос и сохраняет его от имени пользователя ИИ.
func (s *Service) generateAnswer(ctx context.Context, q *domain.Question) (*domain.Answer, error) {
	text, err := s.gen.Generate(ctx, ai.AnswerPrompt(q.Title, q.Body))
	if err != nil {
		return nil, err
	}
	return s.store.CreateAnswer(ctx, &domain.Answer{
		Body:       text,
		QuestionID: q.ID,
		UserID:     domain.AIUserID,
	})
}

// GetQuestion увеличивает счетчик просмотров и возвращает вопрос с ответами,
// комментариями и голосами. viewCount в ответе уже учитывает этот просмотр.
func (s *Service) GetQuestion(ctx context.Context, id int64) (*domain.QuestionDetail, error) {
	fields := logrus.Fields{"question_id": id}
	if err := s.store.IncrementViewCount(ctx, id); err != nil {
		return nil, s.logged(err, "failed to count question view", fields)
	}
	q, err := s.store.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, s.logged(err, "failed to load question", fields)
	}

	target := domain.QuestionTarget(id)
	counts, err := s.store.CountVotes(ctx, target)
	if err != nil {
		return nil, s.logged(err, "failed to count question votes", fields)
	}
	comments, err := s.store.GetCommentsByTarget(ctx, target)
	if err != nil {
		return nil, s.logged(err, "failed to load question comments", fields)
	}
	answers, err := s.store.GetAnswersByQuestionID(ctx, id)
	if err != nil {
		return nil, s.logged(err, "failed to load answers", fields)
	}

	detail := domain.NewQuestionDetail(q, counts)
	detail.Comments = domain.NewCommentViews(comments)
	detail.Answers, err = s.answerViews(ctx, answers)
	if err != nil {
		return nil, s.logged(err, "failed to load answer details", fields)
	}
	return detail, nil
}

// answerViews догружает голоса и комментарии ответов пакетно через дата-лоадеры.
func (s *Service) answerViews(ctx context.Context, answers []*domain.Answer) ([]*domain.AnswerView, error) {
	views := make([]*domain.AnswerView, 0, len(answers))
	if len(answers) == 0 {
		return views, nil
	}

	ids := make([]int64, len(answers))
	for i, a := range answers {
		ids[i] = a.ID
	}
	loaders := dataloader.FromContextOrNew(ctx, s.store)
	votes, err := loaders.VotesForAnswers(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := loaders.CommentsForAnswers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, a := range answers {
		views = append(views, domain.NewAnswerView(a, votes[i], comments[i]))
	}
	return views, nil
}

// ListQuestions возвращает вопросы, новые первыми. Имена авторов анонимных вопросов скрыты.
func (s *Service) ListQuestions(ctx context.Context, filter storage.QuestionFilter) ([]*domain.QuestionSummary, error) {
	list, err := s.store.GetQuestions(ctx, filter)
	if err != nil {
		return nil, s.logged(err, "failed to list questions", logrus.Fields{"search": filter.Search})
	}
	for _, q := range list {
		q.HideAuthor()
	}
	return list, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, id int64, upd domain.QuestionUpdate) (*domain.QuestionDetail, error) {
	fields := logrus.Fields{"question_id": id}
	if err := domain.ValidateQuestion(upd.Title, upd.Body); err != nil {
		return nil, s.logged(err, "invalid question update", fields)
	}
	q, err := s.store.UpdateQuestion(ctx, id, upd)
	if err != nil {
		return nil, s.logged(err, "failed to update question", fields)
	}
	counts, err := s.store.CountVotes(ctx, domain.QuestionTarget(id))
	if err != nil {
		return nil, s.logged(err, "failed to count question votes", fields)
	}
	return domain.NewQuestionDetail(q, counts), nil
}

// DeleteQuestion удаляет вопрос каскадно. Отсутствующий вопрос - Success: false без ошибки.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) (domain.DeleteResult, error) {
	ok, err := s.store.DeleteQuestion(ctx, id)
	if err != nil {
		return notDeleted("Failed to delete question"), s.logged(err, "failed to delete question", logrus.Fields{"question_id": id})
	}
	if !ok {
		return notDeleted("Question not found"), nil
	}
	s.log.WithField("question_id", id).Info("question deleted")
	return deleted("Question"), nil
}
