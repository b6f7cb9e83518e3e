package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/UkralStul/course-qa-service/internal/domain"
)

type contextKey string

const userKey = contextKey("user_id")

type tokenClaims struct {
	jwt.StandardClaims
	UserID int64 `json:"user_id"`
}

// Authenticator выпускает и проверяет HS256-токены пользователей.
type Authenticator struct {
	secret []byte
	// allowClientUserID разрешает брать id пользователя из тела запроса (только для разработки).
	allowClientUserID bool
}

func New(secret string, allowClientUserID bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), allowClientUserID: allowClientUserID}
}

// Issue подписывает токен для пользователя.
func (a *Authenticator) Issue(userID int64, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := &tokenClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse проверяет подпись и срок действия токена и возвращает id пользователя.
func (a *Authenticator) Parse(accessToken string) (int64, error) {
	if len(a.secret) == 0 {
		return 0, fmt.Errorf("%w: token auth is disabled", domain.ErrUnauthorized)
	}
	token, err := jwt.ParseWithClaims(accessToken, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: invalid token claims", domain.ErrUnauthorized)
	}
	return claims.UserID, nil
}

// Middleware кладет в контекст id пользователя из заголовка Authorization.
// Запрос без заголовка проходит дальше анонимно, невалидный токен - 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			unauthorized(w, "authorization header must use the Bearer scheme")
			return
		}
		userID, err := a.Parse(strings.TrimSpace(raw))
		if err != nil {
			unauthorized(w, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

// Resolve определяет действующего пользователя: из токена,
// а в режиме разработки - из id, присланного клиентом.
func (a *Authenticator) Resolve(ctx context.Context, clientUserID int64) (int64, error) {
	if id, ok := UserFrom(ctx); ok {
		return id, nil
	}
	if a.allowClientUserID && clientUserID > 0 {
		return clientUserID, nil
	}
	return 0, fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
}

func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserFrom достает id пользователя, проверенный middleware.
func UserFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userKey).(int64)
	return id, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
