package domain

import (
	"fmt"
	"strconv"
)

// TargetKind различает вопросы и ответы как цели голосов и комментариев.
type TargetKind int

const (
	TargetQuestion TargetKind = iota + 1
	TargetAnswer
)

func (k TargetKind) String() string {
	switch k {
	case TargetQuestion:
		return "question"
	case TargetAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// Target - вопрос или ответ. Ровно одна из колонок question_id / answer_id.
type Target struct {
	Kind TargetKind
	ID   int64
}

// QuestionTarget и AnswerTarget - конструкторы вариантов.
func QuestionTarget(id int64) Target { return Target{Kind: TargetQuestion, ID: id} }
func AnswerTarget(id int64) Target   { return Target{Kind: TargetAnswer, ID: id} }

// TargetOf собирает Target из пары nullable-колонок.
// Ноль считается отсутствующим значением.
func TargetOf(questionID, answerID *int64) (Target, error) {
	hasQuestion := questionID != nil && *questionID != 0
	hasAnswer := answerID != nil && *answerID != 0
	switch {
	case hasQuestion && !hasAnswer:
		return QuestionTarget(*questionID), nil
	case hasAnswer && !hasQuestion:
		return AnswerTarget(*answerID), nil
	default:
		return Target{}, fmt.Errorf("%w: must reference either a question or an answer, not both or neither", ErrValidation)
	}
}

// Columns возвращает значения для колонок question_id и answer_id.
func (t Target) Columns() (questionID, answerID *int64) {
	id := t.ID
	if t.Kind == TargetQuestion {
		return &id, nil
	}
	return nil, &id
}

// Predicate возвращает SQL-условие, выбирающее строки этой цели.
func (t Target) Predicate() (string, int64) {
	if t.Kind == TargetQuestion {
		return "question_id = ? AND answer_id IS NULL", t.ID
	}
	return "answer_id = ? AND question_id IS NULL", t.ID
}

// Matches проверяет, относится ли пара колонок к этой цели.
func (t Target) Matches(questionID, answerID *int64) bool {
	other, err := TargetOf(questionID, answerID)
	return err == nil && other == t
}

func (t Target) String() string {
	return t.Kind.String() + ":" + strconv.FormatInt(t.ID, 10)
}
