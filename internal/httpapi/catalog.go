package httpapi

import (
	"net/http"

	"github.com/UkralStul/course-qa-service/internal/domain"
)

type tagRequest struct {
	Name string `json:"name"`
}

type courseRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// === Tags ===

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.ListTags(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.actor(r); err != nil {
		s.writeError(w, err)
		return
	}
	tag, err := s.svc.CreateTag(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) getTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	tag, err := s.svc.GetTag(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) updateTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req tagRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.actor(r); err != nil {
		s.writeError(w, err)
		return
	}
	tag, err := s.svc.UpdateTag(r.Context(), id, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.actor(r); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.svc.DeleteTag(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.DeleteResult{Success: true, Message: "Tag deleted successfully"})
}

// === Courses ===

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.svc.ListCourses(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) createCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.actor(r); err != nil {
		s.writeError(w, err)
		return
	}
	course, err := s.svc.CreateCourse(r.Context(), req.Name, req.Code)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (s *Server) getCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	course, err := s.svc.GetCourse(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (s *Server) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.actor(r); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.svc.DeleteCourse(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.DeleteResult{Success: true, Message: "Course deleted successfully"})
}
