package httpapi

import (
	"net/http"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/forum"
	"github.com/UkralStul/course-qa-service/internal/storage"
)

type questionRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	CourseID    int64    `json:"courseId"`
	IsAnonymous bool     `json:"isAnonymous"`
	Tags        []string `json:"tags"`
	UserID      int64    `json:"userId"`
}

// rateRequest: type 1 - за, 0 - против.
type rateRequest struct {
	Type   *int  `json:"type"`
	UserID int64 `json:"userId"`
}

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.writeError(w, err)
		return
	}
	list, err := s.svc.ListQuestions(r.Context(), storage.QuestionFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	userID, err := s.auth.Resolve(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.svc.CreateQuestion(r.Context(), forum.NewQuestion{
		Title:       req.Title,
		Body:        req.Content,
		UserID:      userID,
		CourseID:    req.CourseID,
		IsAnonymous: req.IsAnonymous,
		Tags:        req.Tags,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	detail, err := s.svc.GetQuestion(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req questionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.auth.Resolve(r.Context(), req.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	updated, err := s.svc.UpdateQuestion(r.Context(), id, domain.QuestionUpdate{
		Title:       req.Title,
		Body:        req.Content,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.actor(r); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.DeleteQuestion(r.Context(), id)
	s.writeDelete(w, res, err)
}

func (s *Server) rateQuestion(w http.ResponseWriter, r *http.Request) {
	s.rate(w, r, domain.QuestionTarget)
}

func (s *Server) rateAnswer(w http.ResponseWriter, r *http.Request) {
	s.rate(w, r, domain.AnswerTarget)
}

// rate - общий обработчик голосования за вопрос или ответ.
func (s *Server) rate(w http.ResponseWriter, r *http.Request, target func(int64) domain.Target) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req rateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Type == nil {
		s.writeError(w, errMissing("type"))
		return
	}
	userID, err := s.auth.Resolve(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.Rate(r.Context(), userID, target(id), *req.Type)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
