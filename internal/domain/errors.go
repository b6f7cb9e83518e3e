package domain

import "errors"

// Классы ошибок. Слои ниже оборачивают их через fmt.Errorf("...: %w"),
// HTTP-слой сопоставляет их со статусами через errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)
