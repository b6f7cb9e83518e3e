package dataloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/storage"
	"github.com/UkralStul/course-qa-service/internal/storage/inmemory"
)

// countingStore считает пакетные вызовы хранилища.
type countingStore struct {
	storage.Storage
	mu           sync.Mutex
	commentCalls int
	voteCalls    int
	failComments error
}

func (s *countingStore) GetCommentsByAnswerIDs(ctx context.Context, ids []int64) (map[int64][]*domain.Comment, error) {
	s.mu.Lock()
	s.commentCalls++
	s.mu.Unlock()
	if s.failComments != nil {
		return nil, s.failComments
	}
	return s.Storage.GetCommentsByAnswerIDs(ctx, ids)
}

func (s *countingStore) CountVotesByAnswerIDs(ctx context.Context, ids []int64) (map[int64]domain.VoteCounts, error) {
	s.mu.Lock()
	s.voteCalls++
	s.mu.Unlock()
	return s.Storage.CountVotesByAnswerIDs(ctx, ids)
}

// seed создает вопрос с двумя ответами; у первого ответа один комментарий и один голос.
func seed(t *testing.T) (*countingStore, []int64) {
	ctx := context.Background()
	mem := inmemory.New()

	user, err := mem.CreateUser(ctx, &domain.User{FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	course, err := mem.CreateCourse(ctx, &domain.Course{Name: "Databases"})
	require.NoError(t, err)
	q, err := mem.CreateQuestion(ctx, &domain.Question{Title: "t", Body: "b", UserID: user.ID, CourseID: course.ID}, nil)
	require.NoError(t, err)

	a1, err := mem.CreateAnswer(ctx, &domain.Answer{Body: "first", QuestionID: q.ID, UserID: user.ID})
	require.NoError(t, err)
	a2, err := mem.CreateAnswer(ctx, &domain.Answer{Body: "second", QuestionID: q.ID, UserID: user.ID})
	require.NoError(t, err)

	_, err = mem.CreateComment(ctx, &domain.Comment{Body: "nice", UserID: user.ID, AnswerID: &a1.ID})
	require.NoError(t, err)
	_, err = mem.ToggleVote(ctx, user.ID, domain.AnswerTarget(a1.ID), domain.Upvote)
	require.NoError(t, err)

	return &countingStore{Storage: mem}, []int64{a1.ID, a2.ID}
}

func TestLoaders_BatchesAnswers(t *testing.T) {
	store, ids := seed(t)
	loaders := New(store)
	ctx := context.Background()

	comments, err := loaders.CommentsForAnswers(ctx, ids)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Len(t, comments[0], 1)
	assert.Equal(t, "nice", comments[0][0].Body)
	assert.NotNil(t, comments[1])
	assert.Empty(t, comments[1])

	votes, err := loaders.VotesForAnswers(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteCounts{UpVotes: 1}, votes[0])
	assert.Equal(t, domain.VoteCounts{}, votes[1])

	assert.Equal(t, 1, store.commentCalls)
	assert.Equal(t, 1, store.voteCalls)
}

func TestLoaders_PropagatesError(t *testing.T) {
	store, ids := seed(t)
	boom := errors.New("db down")
	store.failComments = boom

	_, err := New(store).CommentsForAnswers(context.Background(), ids)
	assert.ErrorIs(t, err, boom)
}

func TestMiddleware_InjectsLoaders(t *testing.T) {
	store, _ := seed(t)

	var got *Loaders
	h := Middleware(store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = For(r.Context())
		assert.True(t, ok)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)

	_, ok := For(context.Background())
	assert.False(t, ok)
	assert.NotNil(t, FromContextOrNew(context.Background(), store))
	assert.Same(t, got, FromContextOrNew(WithLoaders(context.Background(), got), store))
}
