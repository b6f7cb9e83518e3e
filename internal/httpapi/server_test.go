package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/course-qa-service/internal/auth"
	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/forum"
	"github.com/UkralStul/course-qa-service/internal/live"
	"github.com/UkralStul/course-qa-service/internal/storage/inmemory"
)

type fixedGenerator string

func (g fixedGenerator) Generate(context.Context, string) (string, error) {
	return string(g), nil
}

type testAPI struct {
	srv    *httptest.Server
	svc    *forum.Service
	authn  *auth.Authenticator
	course int64
	token  string
}

func newTestAPI(t *testing.T, allowClientUserID bool) *testAPI {
	ctx := context.Background()
	store := inmemory.New()

	_, err := store.CreateUser(ctx, &domain.User{ID: domain.AIUserID, FirstName: "AI", LastName: "Helper"})
	require.NoError(t, err)
	student, err := store.CreateUser(ctx, &domain.User{FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, &domain.User{ID: 5, FirstName: "Eve", LastName: "Five"})
	require.NoError(t, err)
	course, err := store.CreateCourse(ctx, &domain.Course{Name: "Databases", Code: "CS340"})
	require.NoError(t, err)

	authn := auth.New("secret", allowClientUserID)
	token, err := authn.Issue(student.ID, time.Hour)
	require.NoError(t, err)

	svc := forum.NewService(store, fixedGenerator("Generated answer"), live.NewHub(8))
	srv := httptest.NewServer(NewRouter(svc, authn))
	t.Cleanup(srv.Close)

	return &testAPI{srv: srv, svc: svc, authn: authn, course: course.ID, token: token}
}

func (a *testAPI) tokenFor(t *testing.T, userID int64) string {
	token, err := a.authn.Issue(userID, time.Hour)
	require.NoError(t, err)
	return token
}

// do выполняет запрос и декодирует JSON-ответ в out (если out не nil).
func (a *testAPI) do(t *testing.T, method, path, token string, body any, out any) int {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) createQuestion(t *testing.T, tags ...string) domain.CreatedQuestion {
	var created domain.CreatedQuestion
	status := a.do(t, http.MethodPost, "/api/questions", a.token, map[string]any{
		"title":    "Q1",
		"content":  "body",
		"courseId": a.course,
		"tags":     tags,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	return created
}

func TestQuestionScenario(t *testing.T) {
	api := newTestAPI(t, false)

	created := api.createQuestion(t, "alpha")
	assert.NotZero(t, created.ID)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "alpha", created.Tags[0].Name)
	require.Len(t, created.Answers, 1)
	assert.Equal(t, "Generated answer", created.Answers[0].Body)

	var detail domain.QuestionDetail
	status := api.do(t, http.MethodGet, fmt.Sprintf("/api/questions/%d", created.ID), "", nil, &detail)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, detail.ViewCount)
	assert.Equal(t, []string{"alpha"}, detail.Tags)
	require.Len(t, detail.Answers, 1)
	assert.True(t, detail.Answers[0].IsAI)

	var list []domain.QuestionSummary
	status = api.do(t, http.MethodGet, "/api/questions?search=q1", "", nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0].AnswerCount)
}

func TestMutationsRequireIdentity(t *testing.T) {
	api := newTestAPI(t, false)

	var body map[string]string
	status := api.do(t, http.MethodPost, "/api/questions", "", map[string]any{
		"title": "t", "content": "b", "courseId": api.course, "userId": 2,
	}, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, body["error"])

	status = api.do(t, http.MethodPost, "/api/questions", "forged", map[string]any{"title": "t"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestClientUserIDInDevMode(t *testing.T) {
	api := newTestAPI(t, true)

	var created domain.CreatedQuestion
	status := api.do(t, http.MethodPost, "/api/questions", "", map[string]any{
		"title": "t", "content": "b", "courseId": api.course, "userId": 5,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 5, created.UserID)
}

func TestRateAnswerTwiceRestoresCounts(t *testing.T) {
	api := newTestAPI(t, false)
	created := api.createQuestion(t)
	answerID := created.Answers[0].ID
	voter := api.tokenFor(t, 5)
	path := fmt.Sprintf("/api/answers/%d/rate", answerID)

	var first, second domain.VoteResult
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, path, voter, map[string]int{"type": 1}, &first))
	assert.EqualValues(t, 1, first.UpVotes)
	assert.EqualValues(t, 1, first.Score)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, path, voter, map[string]int{"type": 1}, &second))
	assert.EqualValues(t, 0, second.UpVotes)
	assert.EqualValues(t, 0, second.DownVotes)

	var errBody map[string]string
	status := api.do(t, http.MethodPost, path, voter, map[string]int{"type": 3}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)

	status = api.do(t, http.MethodPost, path, voter, map[string]any{}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteMissingQuestion(t *testing.T) {
	api := newTestAPI(t, false)

	var res domain.DeleteResult
	status := api.do(t, http.MethodDelete, "/api/questions/9999", api.token, nil, &res)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, res.Success)

	created := api.createQuestion(t)
	status = api.do(t, http.MethodDelete, fmt.Sprintf("/api/questions/%d", created.ID), api.token, nil, &res)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.Success)
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t, false)
	created := api.createQuestion(t)

	var errBody map[string]string
	status := api.do(t, http.MethodGet, "/api/questions/9999", "", nil, &errBody)
	assert.Equal(t, http.StatusNotFound, status)

	status = api.do(t, http.MethodGet, "/api/questions/abc", "", nil, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)

	// Комментарий сразу к вопросу и ответу
	status = api.do(t, http.MethodPost, "/api/comments", api.token, map[string]any{
		"body": "x", "question_id": created.ID, "answer_id": created.Answers[0].ID,
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)

	// Чужой ответ (ответ ИИ) менять нельзя
	status = api.do(t, http.MethodPut, fmt.Sprintf("/api/answers/%d", created.Answers[0].ID), api.token,
		map[string]any{"body": "mine now"}, &errBody)
	assert.Equal(t, http.StatusForbidden, status)

	status = api.do(t, http.MethodPost, "/api/courses", api.token, map[string]string{"name": "Databases"}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
}

func TestCommentsAndCatalog(t *testing.T) {
	api := newTestAPI(t, false)
	created := api.createQuestion(t)

	var comment domain.CommentView
	status := api.do(t, http.MethodPost, "/api/comments", api.token, map[string]any{
		"body": "nice", "question_id": created.ID,
	}, &comment)
	require.Equal(t, http.StatusCreated, status)

	var comments []domain.CommentView
	status = api.do(t, http.MethodGet, fmt.Sprintf("/api/comments?question_id=%d", created.ID), "", nil, &comments)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Body)

	var res domain.DeleteResult
	status = api.do(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), api.tokenFor(t, 5), nil, &res)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, res.Success)

	var tag domain.Tag
	status = api.do(t, http.MethodPost, "/api/tags", api.token, map[string]string{"name": " Go "}, &tag)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "go", tag.Name)

	var tags []domain.Tag
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/tags", "", nil, &tags))
	assert.Len(t, tags, 1)

	var health map[string]string
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/healthz", "", nil, &health))
	assert.Equal(t, "ok", health["status"])
}

func TestLiveFeed(t *testing.T) {
	api := newTestAPI(t, false)
	created := api.createQuestion(t)

	url := "ws" + strings.TrimPrefix(api.srv.URL, "http") + fmt.Sprintf("/ws/questions/%d", created.ID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// До регистрации подписки события не доставляются
	require.Eventually(t, func() bool { return api.svc.Hub().Subscribers(created.ID) == 1 }, time.Second, 10*time.Millisecond)

	status := api.do(t, http.MethodPost, "/api/answers", api.token, map[string]any{
		"body": "manual answer", "question_id": created.ID,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event live.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, live.EventAnswerCreated, event.Type)
	assert.Equal(t, created.ID, event.QuestionID)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(api.srv.URL, "http")+"/ws/questions/9999", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
