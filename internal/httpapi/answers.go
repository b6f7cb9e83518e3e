package httpapi

import (
	"net/http"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/forum"
)

type answerRequest struct {
	Body        string `json:"body"`
	QuestionID  int64  `json:"question_id"`
	IsAnonymous bool   `json:"is_anonymous"`
	UserID      int64  `json:"user_id"`
}

func (s *Server) createAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	userID, err := s.auth.Resolve(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	answer, err := s.svc.CreateAnswer(r.Context(), forum.NewAnswer{
		QuestionID:  req.QuestionID,
		UserID:      userID,
		Body:        req.Body,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

func (s *Server) generateAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.auth.Resolve(r.Context(), req.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	answer, err := s.svc.GenerateAnswer(r.Context(), req.QuestionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

func (s *Server) getAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	answer, err := s.svc.GetAnswer(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) updateAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req answerRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	userID, err := s.auth.Resolve(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	answer, err := s.svc.UpdateAnswer(r.Context(), id, userID, domain.AnswerUpdate{
		Body:        req.Body,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) deleteAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	userID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.DeleteAnswer(r.Context(), id, userID)
	s.writeDelete(w, res, err)
}

func (s *Server) acceptAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	userID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	answer, err := s.svc.AcceptAnswer(r.Context(), id, userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
