package httpapi

import (
	"net/http"

	"github.com/UkralStul/course-qa-service/internal/forum"
)

type commentRequest struct {
	Body       string `json:"body"`
	QuestionID *int64 `json:"question_id"`
	AnswerID   *int64 `json:"answer_id"`
	UserID     int64  `json:"user_id"`
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	questionID, err := queryID(r, "question_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	answerID, err := queryID(r, "answer_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	comments, err := s.svc.ListComments(r.Context(), questionID, answerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	userID, err := s.auth.Resolve(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	comment, err := s.svc.CreateComment(r.Context(), forum.NewComment{
		QuestionID: req.QuestionID,
		AnswerID:   req.AnswerID,
		UserID:     userID,
		Body:       req.Body,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) generateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.auth.Resolve(r.Context(), req.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	comment, err := s.svc.GenerateComment(r.Context(), req.QuestionID, req.AnswerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req commentRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	userID, err := s.auth.Resolve(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	comment, err := s.svc.UpdateComment(r.Context(), id, userID, req.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
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
	res, err := s.svc.DeleteComment(r.Context(), id, userID)
	s.writeDelete(w, res, err)
}
