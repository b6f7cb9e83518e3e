// Package httpapi - REST API форума поверх chi.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/UkralStul/course-qa-service/internal/auth"
	"github.com/UkralStul/course-qa-service/internal/dataloader"
	"github.com/UkralStul/course-qa-service/internal/forum"
	"github.com/UkralStul/course-qa-service/internal/live"
	"github.com/UkralStul/course-qa-service/internal/logging"
)

// Server держит зависимости обработчиков.
type Server struct {
	svc  *forum.Service
	auth *auth.Authenticator
	log  *logrus.Entry
}

// NewRouter собирает маршруты API.
func NewRouter(svc *forum.Service, authn *auth.Authenticator) http.Handler {
	s := &Server{svc: svc, auth: authn, log: logging.Component("http")}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(s.log))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", s.health)
	router.Get("/ws/questions/{id}", s.liveFeed)

	router.Route("/api", func(r chi.Router) {
		r.Use(authn.Middleware)
		r.Use(func(next http.Handler) http.Handler {
			return dataloader.Middleware(svc.Storage(), next)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", s.listQuestions)
			r.Post("/", s.createQuestion)
			r.Get("/{id}", s.getQuestion)
			r.Put("/{id}", s.updateQuestion)
			r.Delete("/{id}", s.deleteQuestion)
			r.Post("/{id}/rate", s.rateQuestion)
		})

		r.Route("/answers", func(r chi.Router) {
			r.Post("/", s.createAnswer)
			r.Post("/ai", s.generateAnswer)
			r.Get("/{id}", s.getAnswer)
			r.Put("/{id}", s.updateAnswer)
			r.Delete("/{id}", s.deleteAnswer)
			r.Post("/{id}/rate", s.rateAnswer)
			r.Post("/{id}/accept", s.acceptAnswer)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", s.listComments)
			r.Post("/", s.createComment)
			r.Post("/ai", s.generateComment)
			r.Put("/{id}", s.updateComment)
			r.Delete("/{id}", s.deleteComment)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.listTags)
			r.Post("/", s.createTag)
			r.Get("/{id}", s.getTag)
			r.Put("/{id}", s.updateTag)
			r.Delete("/{id}", s.deleteTag)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", s.listCourses)
			r.Post("/", s.createCourse)
			r.Get("/{id}", s.getCourse)
			r.Delete("/{id}", s.deleteCourse)
		})
	})

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		s.log.WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// liveFeed подписывает клиента на события вопроса.
func (s *Server) liveFeed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.svc.Storage().GetQuestionByID(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	live.ServeWS(s.svc.Hub(), w, r, id, s.log)
}
