package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/storage"
)

// fillWithMockData создает пользователя ИИ, студента, курс и вопрос с ответом и комментарием.
func fillWithMockData(ctx context.Context, s storage.Storage) error {
	// 1. Пользователь ИИ всегда получает id 1.
	if _, err := s.CreateUser(ctx, &domain.User{
		ID:        domain.AIUserID,
		FirstName: "AI",
		LastName:  "Assistant",
		Email:     "ai@example.com",
	}); err != nil {
		return fmt.Errorf("fillWithMockData: failed to create ai user: %w", err)
	}

	// 2. Студент и преподаватель курса.
	student, err := s.CreateUser(ctx, &domain.User{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create student: %w", err)
	}
	instructor, err := s.CreateUser(ctx, &domain.User{FirstName: "Mark", LastName: "Olsen", Email: "mark@example.com"})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create instructor: %w", err)
	}

	// 3. Курс.
	course, err := s.CreateCourse(ctx, &domain.Course{Name: "Introduction to Databases", Code: "CS340"})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create course: %w", err)
	}

	// 4. Вопрос с тегами.
	q, err := s.CreateQuestion(ctx, &domain.Question{
		Title:    "What is the difference between INNER and LEFT JOIN?",
		Body:     "When should I use a LEFT JOIN instead of an INNER JOIN?",
		UserID:   student.ID,
		CourseID: course.ID,
	}, []string{"sql", "joins"})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create question: %w", err)
	}

	// 5. Ответ преподавателя и комментарий студента к нему.
	answer, err := s.CreateAnswer(ctx, &domain.Answer{
		Body:       "INNER JOIN keeps only matching rows, LEFT JOIN also keeps unmatched rows from the left table.",
		QuestionID: q.ID,
		UserID:     instructor.ID,
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create answer: %w", err)
	}
	if _, err := s.CreateComment(ctx, &domain.Comment{
		Body:     "Thanks, that makes sense!",
		UserID:   student.ID,
		AnswerID: &answer.ID,
	}); err != nil {
		return fmt.Errorf("fillWithMockData: failed to create comment: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"question_id":   q.ID,
		"student_id":    student.ID,
		"instructor_id": instructor.ID,
	}).Info("mock data filled successfully")
	return nil
}
