package domain

import "time"

// AIUserID - зарезервированный пользователь, от имени которого сохраняются ответы и комментарии ИИ.
const AIUserID int64 = 1

// User представляет пользователя платформы.
type User struct {
	ID        int64     `json:"user_id" gorm:"primaryKey;autoIncrement"`
	FirstName string    `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName  string    `json:"last_name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// Course представляет учебный курс, к которому привязаны вопросы.
type Course struct {
	ID        int64     `json:"course_id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;index"`
	Code      string    `json:"code" gorm:"type:varchar(50)"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// Tag представляет тег. Имя хранится в нормализованном виде (см. NormalizeTagName).
type Tag struct {
	ID   int64  `json:"tag_id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(64);not null;index"`
}

// QuestionTag - строка связующей таблицы вопрос-тег.
type QuestionTag struct {
	QuestionID int64 `gorm:"primaryKey"`
	TagID      int64 `gorm:"primaryKey;index"`
}

// Question представляет вопрос в курсе.
type Question struct {
	ID          int64     `json:"questionId" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Body        string    `json:"content" gorm:"type:text;not null"`
	UserID      int64     `json:"userId" gorm:"not null;index"`
	CourseID    int64     `json:"courseId" gorm:"not null;index"`
	IsAnonymous bool      `json:"isAnonymous" gorm:"not null;default:false"`
	ViewCount   int64     `json:"viewCount" gorm:"not null;default:0"`
	Score       int64     `json:"score" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"not null"`

	Author *User   `json:"-" gorm:"foreignKey:UserID"`
	Course *Course `json:"-" gorm:"foreignKey:CourseID"`
	Tags   []*Tag  `json:"-" gorm:"many2many:question_tags"`
}

// Answer представляет ответ на вопрос.
type Answer struct {
	ID          int64     `json:"answerId" gorm:"primaryKey;autoIncrement"`
	Body        string    `json:"content" gorm:"type:text;not null"`
	QuestionID  int64     `json:"questionId" gorm:"not null;index"`
	UserID      int64     `json:"userId" gorm:"not null;index"`
	IsAnonymous bool      `json:"isAnonymous" gorm:"not null;default:false"`
	IsAccepted  bool      `json:"isAccepted" gorm:"not null;default:false"`
	Score       int64     `json:"score" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"not null"`

	Author *User `json:"-" gorm:"foreignKey:UserID"`
}

// Comment представляет комментарий. Родитель - ровно один из QuestionID / AnswerID.
type Comment struct {
	ID         int64     `json:"comment_id" gorm:"primaryKey;autoIncrement"`
	Body       string    `json:"body" gorm:"type:text;not null"`
	UserID     int64     `json:"user_id" gorm:"not null;index"`
	QuestionID *int64    `json:"question_id" gorm:"index"`
	AnswerID   *int64    `json:"answer_id" gorm:"index"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null"`

	Author *User `json:"-" gorm:"foreignKey:UserID"`
}

// Target возвращает родителя комментария.
func (c *Comment) Target() (Target, error) {
	return TargetOf(c.QuestionID, c.AnswerID)
}

// Vote - голос пользователя за вопрос или ответ.
type Vote struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	UserID     int64     `gorm:"not null;index"`
	QuestionID *int64    `gorm:"index"`
	AnswerID   *int64    `gorm:"index"`
	VoteType   VoteType  `gorm:"type:varchar(10);not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// Target возвращает цель голоса.
func (v *Vote) Target() (Target, error) {
	return TargetOf(v.QuestionID, v.AnswerID)
}

// QuestionUpdate - изменяемые поля вопроса.
type QuestionUpdate struct {
	Title       string
	Body        string
	IsAnonymous bool
}

// AnswerUpdate - изменяемые поля ответа.
type AnswerUpdate struct {
	Body        string
	IsAnonymous bool
}
