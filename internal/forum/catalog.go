package forum

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/course-qa-service/internal/domain"
)

// === Tags ===

// CreateTag создает тег. Если тег с таким именем уже есть, возвращается он.
func (s *Service) CreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	name = domain.NormalizeTagName(name)
	if err := domain.ValidateTagName(name); err != nil {
		return nil, s.logged(err, "invalid tag", nil)
	}
	tag, err := s.store.CreateTag(ctx, name)
	return tag, s.logged(err, "failed to create tag", logrus.Fields{"tag": name})
}

func (s *Service) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.store.GetTags(ctx)
	if err != nil {
		return nil, s.logged(err, "failed to list tags", nil)
	}
	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

func (s *Service) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	tag, err := s.store.GetTagByID(ctx, id)
	return tag, s.logged(err, "failed to load tag", logrus.Fields{"tag_id": id})
}

func (s *Service) UpdateTag(ctx context.Context, id int64, name string) (*domain.Tag, error) {
	name = domain.NormalizeTagName(name)
	if err := domain.ValidateTagName(name); err != nil {
		return nil, s.logged(err, "invalid tag", nil)
	}
	tag, err := s.store.UpdateTag(ctx, id, name)
	return tag, s.logged(err, "failed to update tag", logrus.Fields{"tag_id": id})
}

func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	return s.logged(s.store.DeleteTag(ctx, id), "failed to delete tag", logrus.Fields{"tag_id": id})
}

// === Courses ===

func (s *Service) CreateCourse(ctx context.Context, name, code string) (*domain.Course, error) {
	if err := domain.ValidateCourse(name); err != nil {
		return nil, s.logged(err, "invalid course", nil)
	}
	course, err := s.store.CreateCourse(ctx, &domain.Course{Name: name, Code: code})
	return course, s.logged(err, "failed to create course", logrus.Fields{"course": name})
}

func (s *Service) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	courses, err := s.store.GetCourses(ctx)
	if err != nil {
		return nil, s.logged(err, "failed to list courses", nil)
	}
	if courses == nil {
		courses = []*domain.Course{}
	}
	return courses, nil
}

func (s *Service) GetCourse(ctx context.Context, id int64) (*domain.Course, error) {
	course, err := s.store.GetCourseByID(ctx, id)
	return course, s.logged(err, "failed to load course", logrus.Fields{"course_id": id})
}

// DeleteCourse удаляет курс без вопросов. Курс с вопросами - ErrConflict.
func (s *Service) DeleteCourse(ctx context.Context, id int64) error {
	return s.logged(s.store.DeleteCourse(ctx, id), "failed to delete course", logrus.Fields{"course_id": id})
}
