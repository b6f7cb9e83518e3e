package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/course-qa-service/internal/domain"
)

func TestIssueAndParse(t *testing.T) {
	a := New("secret", false)

	token, err := a.Issue(5, time.Hour)
	require.NoError(t, err)

	id, err := a.Parse(token)
	require.NoError(t, err)
	assert.EqualValues(t, 5, id)
}

func TestParse_Rejects(t *testing.T) {
	a := New("secret", false)

	expired, err := a.Issue(5, -time.Minute)
	require.NoError(t, err)
	_, err = a.Parse(expired)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	foreign, err := New("other", false).Issue(5, time.Hour)
	require.NoError(t, err)
	_, err = a.Parse(foreign)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Токен без HMAC-подписи
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &tokenClaims{UserID: 5}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Parse(none)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = New("", true).Parse("anything")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestMiddleware(t *testing.T) {
	a := New("secret", false)
	token, err := a.Issue(9, time.Hour)
	require.NoError(t, err)

	var seen int64
	var ok bool
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = UserFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, ok)
	assert.EqualValues(t, 9, seen)

	ok = false
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestResolve(t *testing.T) {
	ctx := WithUser(context.Background(), 3)

	strict := New("secret", false)
	id, err := strict.Resolve(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 3, id, "token identity wins over client id")

	_, err = strict.Resolve(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	dev := New("", true)
	id, err = dev.Resolve(context.Background(), 7)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)

	_, err = dev.Resolve(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
