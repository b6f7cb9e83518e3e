package storage

import (
	"context"

	"github.com/UkralStul/course-qa-service/internal/domain"
)

// QuestionFilter - параметры списка вопросов.
type QuestionFilter struct {
	// Search - подстрока заголовка или текста, без учёта регистра. Пустая строка - без фильтра.
	Search string
	Limit  int
	Offset int
}

// Storage определяет контракт для хранилищ.
// Ошибки "не найдено" оборачивают domain.ErrNotFound.
type Storage interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	CreateCourse(ctx context.Context, course *domain.Course) (*domain.Course, error)
	GetCourses(ctx context.Context) ([]*domain.Course, error)
	GetCourseByID(ctx context.Context, id int64) (*domain.Course, error)
	DeleteCourse(ctx context.Context, id int64) error

	// CreateTag возвращает существующий тег, если имя уже занято.
	CreateTag(ctx context.Context, name string) (*domain.Tag, error)
	GetTags(ctx context.Context) ([]*domain.Tag, error)
	GetTagByID(ctx context.Context, id int64) (*domain.Tag, error)
	GetTagByName(ctx context.Context, name string) (*domain.Tag, error)
	UpdateTag(ctx context.Context, id int64, name string) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id int64) error

	// CreateQuestion атомарно создаёт вопрос, недостающие теги и связи с ними.
	// Имена тегов уже нормализованы и без повторов.
	CreateQuestion(ctx context.Context, question *domain.Question, tagNames []string) (*domain.Question, error)
	GetQuestions(ctx context.Context, filter QuestionFilter) ([]*domain.QuestionSummary, error)
	// GetQuestionByID загружает вопрос вместе с автором, курсом и тегами.
	GetQuestionByID(ctx context.Context, id int64) (*domain.Question, error)
	IncrementViewCount(ctx context.Context, id int64) error
	UpdateQuestion(ctx context.Context, id int64, upd domain.QuestionUpdate) (*domain.Question, error)
	// DeleteQuestion удаляет вопрос каскадно. false - вопроса не было.
	DeleteQuestion(ctx context.Context, id int64) (bool, error)

	CreateAnswer(ctx context.Context, answer *domain.Answer) (*domain.Answer, error)
	GetAnswerByID(ctx context.Context, id int64) (*domain.Answer, error)
	// GetAnswersByQuestionID: сначала принятый, затем по рейтингу, затем по времени создания.
	GetAnswersByQuestionID(ctx context.Context, questionID int64) ([]*domain.Answer, error)
	UpdateAnswer(ctx context.Context, id int64, upd domain.AnswerUpdate) (*domain.Answer, error)
	DeleteAnswer(ctx context.Context, id int64) (bool, error)
	// AcceptAnswer помечает ответ принятым и снимает отметку с остальных ответов вопроса.
	AcceptAnswer(ctx context.Context, id int64) (*domain.Answer, error)

	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id int64) (*domain.Comment, error)
	GetCommentsByTarget(ctx context.Context, target domain.Target) ([]*domain.Comment, error)
	UpdateComment(ctx context.Context, id int64, body string) (*domain.Comment, error)
	// DeleteComment удаляет только комментарий этого автора. false - нечего удалять.
	DeleteComment(ctx context.Context, id, userID int64) (bool, error)

	// ToggleVote в одной транзакции проверяет голос пользователя и добавляет, снимает или меняет его.
	ToggleVote(ctx context.Context, userID int64, target domain.Target, voteType domain.VoteType) (domain.VoteAction, error)
	CountVotes(ctx context.Context, target domain.Target) (domain.VoteCounts, error)

	// Методы для Dataloader'ов
	GetCommentsByAnswerIDs(ctx context.Context, answerIDs []int64) (map[int64][]*domain.Comment, error)
	CountVotesByAnswerIDs(ctx context.Context, answerIDs []int64) (map[int64]domain.VoteCounts, error)

	Ping(ctx context.Context) error
	Close() error
}
