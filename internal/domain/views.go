package domain

import "time"

// Формы ответов API. Имена JSON-полей совпадают с тем, что ждёт фронтенд.

const anonymousName = "Anonymous"

// TagRef - тег в ответе на создание вопроса.
type TagRef struct {
	ID   int64  `json:"tagId"`
	Name string `json:"name"`
}

// CommentView - комментарий с именем автора.
type CommentView struct {
	ID         int64     `json:"comment_id"`
	QuestionID *int64    `json:"question_id,omitempty"`
	AnswerID   *int64    `json:"answer_id,omitempty"`
	Body       string    `json:"body"`
	UserID     int64     `json:"user_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AnswerView - ответ с голосами и комментариями.
type AnswerView struct {
	ID          int64          `json:"answerId"`
	QuestionID  int64          `json:"questionId"`
	Body        string         `json:"content"`
	IsAccepted  bool           `json:"isAccepted"`
	IsAnonymous bool           `json:"isAnonymous"`
	IsAI        bool           `json:"isAI"`
	Score       int64          `json:"score"`
	UserID      int64          `json:"userId"`
	FirstName   string         `json:"firstname"`
	LastName    string         `json:"lastname"`
	UpVotes     int64          `json:"upVotes"`
	DownVotes   int64          `json:"downVotes"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Comments    []*CommentView `json:"comments"`
}

// QuestionSummary - строка списка вопросов.
type QuestionSummary struct {
	ID          int64     `json:"questionId"`
	Title       string    `json:"title"`
	Body        string    `json:"content"`
	UserID      int64     `json:"userId"`
	CourseID    int64     `json:"courseId"`
	CourseName  string    `json:"courseName"`
	ViewCount   int64     `json:"viewCount"`
	Score       int64     `json:"score"`
	FirstName   string    `json:"firstname"`
	LastName    string    `json:"lastname"`
	IsAnonymous bool      `json:"isAnonymous"`
	AnswerCount int64     `json:"answerCount"`
	Tags        []string  `json:"tags"`
	UpVotes     int64     `json:"upVotes"`
	DownVotes   int64     `json:"downVotes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// QuestionDetail - вопрос со всеми ответами и комментариями.
type QuestionDetail struct {
	ID          int64          `json:"questionId"`
	Title       string         `json:"title"`
	Body        string         `json:"content"`
	UserID      int64          `json:"userId"`
	CourseID    int64          `json:"courseId"`
	CourseName  string         `json:"courseName"`
	ViewCount   int64          `json:"viewCount"`
	Score       int64          `json:"score"`
	FirstName   string         `json:"firstname"`
	LastName    string         `json:"lastname"`
	IsAnonymous bool           `json:"isAnonymous"`
	Tags        []string       `json:"tags"`
	UpVotes     int64          `json:"upVotes"`
	DownVotes   int64          `json:"downVotes"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Answers     []*AnswerView  `json:"answers"`
	Comments    []*CommentView `json:"comments"`
}

// CreatedQuestion - ответ на создание вопроса.
type CreatedQuestion struct {
	ID          int64         `json:"questionId"`
	Title       string        `json:"title"`
	Body        string        `json:"content"`
	UserID      int64         `json:"userId"`
	CourseID    int64         `json:"courseId"`
	ViewCount   int64         `json:"viewCount"`
	Score       int64         `json:"score"`
	IsAnonymous bool          `json:"isAnonymous"`
	Tags        []TagRef      `json:"tags"`
	Answers     []*AnswerView `json:"answers"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// VoteResult - состояние голосов цели после переключения.
type VoteResult struct {
	Target    string `json:"target"`
	ID        int64  `json:"id"`
	UpVotes   int64  `json:"upVotes"`
	DownVotes int64  `json:"downVotes"`
	Score     int64  `json:"score"`
}

// DeleteResult - результат удаления.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func authorNames(u *User, anonymous bool) (string, string) {
	if anonymous {
		return anonymousName, ""
	}
	if u == nil {
		return "", ""
	}
	return u.FirstName, u.LastName
}

// NewCommentView строит представление комментария.
func NewCommentView(c *Comment) *CommentView {
	first, last := authorNames(c.Author, false)
	return &CommentView{
		ID:         c.ID,
		QuestionID: c.QuestionID,
		AnswerID:   c.AnswerID,
		Body:       c.Body,
		UserID:     c.UserID,
		FirstName:  first,
		LastName:   last,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// NewCommentViews строит представления списка комментариев, никогда не возвращает nil.
func NewCommentViews(comments []*Comment) []*CommentView {
	views := make([]*CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, NewCommentView(c))
	}
	return views
}

// NewAnswerView строит представление ответа.
func NewAnswerView(a *Answer, counts VoteCounts, comments []*Comment) *AnswerView {
	first, last := authorNames(a.Author, a.IsAnonymous)
	return &AnswerView{
		ID:          a.ID,
		QuestionID:  a.QuestionID,
		Body:        a.Body,
		IsAccepted:  a.IsAccepted,
		IsAnonymous: a.IsAnonymous,
		IsAI:        a.UserID == AIUserID,
		Score:       a.Score,
		UserID:      a.UserID,
		FirstName:   first,
		LastName:    last,
		UpVotes:     counts.UpVotes,
		DownVotes:   counts.DownVotes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Comments:    NewCommentViews(comments),
	}
}

// TagNames возвращает имена тегов вопроса.
func (q *Question) TagNames() []string {
	names := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		names = append(names, t.Name)
	}
	return names
}

// NewQuestionDetail строит представление вопроса без ответов и комментариев.
func NewQuestionDetail(q *Question, counts VoteCounts) *QuestionDetail {
	first, last := authorNames(q.Author, q.IsAnonymous)
	d := &QuestionDetail{
		ID:          q.ID,
		Title:       q.Title,
		Body:        q.Body,
		UserID:      q.UserID,
		CourseID:    q.CourseID,
		ViewCount:   q.ViewCount,
		Score:       q.Score,
		FirstName:   first,
		LastName:    last,
		IsAnonymous: q.IsAnonymous,
		Tags:        q.TagNames(),
		UpVotes:     counts.UpVotes,
		DownVotes:   counts.DownVotes,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
		Answers:     []*AnswerView{},
		Comments:    []*CommentView{},
	}
	if q.Course != nil {
		d.CourseName = q.Course.Name
	}
	return d
}

// NewCreatedQuestion строит ответ на создание вопроса.
func NewCreatedQuestion(q *Question) *CreatedQuestion {
	tags := make([]TagRef, 0, len(q.Tags))
	for _, t := range q.Tags {
		tags = append(tags, TagRef{ID: t.ID, Name: t.Name})
	}
	return &CreatedQuestion{
		ID:          q.ID,
		Title:       q.Title,
		Body:        q.Body,
		UserID:      q.UserID,
		CourseID:    q.CourseID,
		ViewCount:   q.ViewCount,
		Score:       q.Score,
		IsAnonymous: q.IsAnonymous,
		Tags:        tags,
		Answers:     []*AnswerView{},
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// HideAuthor скрывает имя автора анонимного вопроса.
func (s *QuestionSummary) HideAuthor() {
	if s.IsAnonymous {
		s.FirstName, s.LastName = anonymousName, ""
	}
}
