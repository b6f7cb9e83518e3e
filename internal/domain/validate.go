package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength   = 255
	maxTagLength     = 64
	maxCommentLength = 2000
)

// NormalizeTagName приводит имя тега к виду, в котором оно хранится: без пробелов по краям, в нижнем регистре.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTagNames нормализует имена в порядке клиента.
// Пустые имена отбрасываются, повторы после нормализации остаются в первом вхождении.
func NormalizeTagNames(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, raw := range names {
		name := NormalizeTagName(raw)
		if name == "" {
			continue
		}
		if len(name) > maxTagLength {
			return nil, fmt.Errorf("%w: tag %q is too long", ErrValidation, name)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// ValidateTagName проверяет уже нормализованное имя тега.
func ValidateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: tag name cannot be empty", ErrValidation)
	}
	if len(name) > maxTagLength {
		return fmt.Errorf("%w: tag %q is too long", ErrValidation, name)
	}
	return nil
}

// ValidateQuestion проверяет поля нового или изменённого вопроса.
func ValidateQuestion(title, body string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: question title cannot be empty", ErrValidation)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: question title is too long", ErrValidation)
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: question content cannot be empty", ErrValidation)
	}
	return nil
}

// ValidateAnswer проверяет тело ответа.
func ValidateAnswer(body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: answer content cannot be empty", ErrValidation)
	}
	return nil
}

// ValidateCommentBody проверяет тело комментария.
func ValidateCommentBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: comment must have a body", ErrValidation)
	}
	if len(body) > maxCommentLength {
		return fmt.Errorf("%w: comment content is too long", ErrValidation)
	}
	return nil
}

// TruncateCommentBody обрезает текст до допустимой длины комментария по границе символа.
func TruncateCommentBody(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= maxCommentLength {
		return body
	}
	cut := maxCommentLength
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return strings.TrimSpace(body[:cut])
}

// Validate проверяет комментарий до записи: тело и ровно одного родителя.
func (c *Comment) Validate() error {
	if err := ValidateCommentBody(c.Body); err != nil {
		return err
	}
	_, err := c.Target()
	return err
}

// ValidateCourse проверяет новый курс.
func ValidateCourse(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: course name cannot be empty", ErrValidation)
	}
	return nil
}
