package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/storage"
)

// Store реализует интерфейс Storage в памяти.
// Наружу отдаются копии, поэтому вызывающий код не может изменить состояние в обход мьютекса.
type Store struct {
	mu           sync.RWMutex
	seq          int64
	users        map[int64]*domain.User
	courses      map[int64]*domain.Course
	tags         map[int64]*domain.Tag
	questions    map[int64]*domain.Question
	answers      map[int64]*domain.Answer
	comments     map[int64]*domain.Comment
	votes        map[int64]*domain.Vote
	questionTags map[int64][]int64 // map[questionID][]tagID
}

var _ storage.Storage = (*Store)(nil)

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:        make(map[int64]*domain.User),
		courses:      make(map[int64]*domain.Course),
		tags:         make(map[int64]*domain.Tag),
		questions:    make(map[int64]*domain.Question),
		answers:      make(map[int64]*domain.Answer),
		comments:     make(map[int64]*domain.Comment),
		votes:        make(map[int64]*domain.Vote),
		questionTags: make(map[int64][]int64),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func now() time.Time { return time.Now().UTC() }

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s with id %d: %w", entity, id, domain.ErrNotFound)
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := *user
	if u.ID == 0 {
		u.ID = s.nextID()
	} else if u.ID > s.seq {
		s.seq = u.ID
	}
	if _, ok := s.users[u.ID]; ok {
		return nil, fmt.Errorf("user with id %d: %w", u.ID, domain.ErrConflict)
	}
	u.CreatedAt = now()
	s.users[u.ID] = &u
	out := u
	return &out, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	out := *u
	return &out, nil
}

func (s *Store) author(id int64) *domain.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	out := *u
	return &out
}

// === Course Methods ===

func (s *Store) CreateCourse(ctx context.Context, course *domain.Course) (*domain.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.courses {
		if c.Name == course.Name {
			return nil, fmt.Errorf("course with this name already exists: %w", domain.ErrConflict)
		}
	}
	c := *course
	c.ID = s.nextID()
	c.CreatedAt = now()
	s.courses[c.ID] = &c
	out := c
	return &out, nil
}

func (s *Store) GetCourses(ctx context.Context) ([]*domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetCourseByID(ctx context.Context, id int64) (*domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return nil, notFound("course", id)
	}
	out := *c
	return &out, nil
}

func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return notFound("course", id)
	}
	for _, q := range s.questions {
		if q.CourseID == id {
			return fmt.Errorf("course %d still has questions: %w", id, domain.ErrConflict)
		}
	}
	delete(s.courses, id)
	return nil
}

// === Tag Methods ===

func (s *Store) tagByName(name string) *domain.Tag {
	for _, t := range s.tags {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// ensureTag вызывается под записывающей блокировкой.
func (s *Store) ensureTag(name string) *domain.Tag {
	if t := s.tagByName(name); t != nil {
		return t
	}
	t := &domain.Tag{ID: s.nextID(), Name: name}
	s.tags[t.ID] = t
	return t
}

func (s *Store) CreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *s.ensureTag(name)
	return &out, nil
}

func (s *Store) GetTags(ctx context.Context) ([]*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetTagByID(ctx context.Context, id int64) (*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tags[id]
	if !ok {
		return nil, notFound("tag", id)
	}
	out := *t
	return &out, nil
}

func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tagByName(name)
	if t == nil {
		return nil, fmt.Errorf("tag %q: %w", name, domain.ErrNotFound)
	}
	out := *t
	return &out, nil
}

func (s *Store) UpdateTag(ctx context.Context, id int64, name string) (*domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tags[id]
	if !ok {
		return nil, notFound("tag", id)
	}
	if other := s.tagByName(name); other != nil && other.ID != id {
		return nil, fmt.Errorf("tag %q already exists: %w", name, domain.ErrConflict)
	}
	t.Name = name
	out := *t
	return &out, nil
}

func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[id]; !ok {
		return notFound("tag", id)
	}
	delete(s.tags, id)
	for qID, tagIDs := range s.questionTags {
		kept := tagIDs[:0]
		for _, tID := range tagIDs {
			if tID != id {
				kept = append(kept, tID)
			}
		}
		s.questionTags[qID] = kept
	}
	return nil
}

// === Question Methods ===

func (s *Store) CreateQuestion(ctx context.Context, question *domain.Question, tagNames []string) (*domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[question.UserID]; !ok {
		return nil, notFound("user", question.UserID)
	}
	if _, ok := s.courses[question.CourseID]; !ok {
		return nil, notFound("course", question.CourseID)
	}

	q := *question
	q.ID = s.nextID()
	q.ViewCount, q.Score = 0, 0
	q.CreatedAt = now()
	q.UpdatedAt = q.CreatedAt
	q.Author, q.Course, q.Tags = nil, nil, nil
	s.questions[q.ID] = &q

	// Под одной блокировкой вопрос и теги появляются атомарно.
	for _, name := range tagNames {
		t := s.ensureTag(name)
		s.questionTags[q.ID] = append(s.questionTags[q.ID], t.ID)
	}
	return s.hydrateQuestion(&q), nil
}

// hydrateQuestion возвращает копию вопроса с автором, курсом и тегами.
func (s *Store) hydrateQuestion(q *domain.Question) *domain.Question {
	out := *q
	out.Author = s.author(q.UserID)
	if c, ok := s.courses[q.CourseID]; ok {
		cp := *c
		out.Course = &cp
	}
	out.Tags = make([]*domain.Tag, 0, len(s.questionTags[q.ID]))
	for _, tID := range s.questionTags[q.ID] {
		if t, ok := s.tags[tID]; ok {
			cp := *t
			out.Tags = append(out.Tags, &cp)
		}
	}
	return &out
}

func (s *Store) GetQuestions(ctx context.Context, filter storage.QuestionFilter) ([]*domain.QuestionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	all := make([]*domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if search != "" &&
			!strings.Contains(strings.ToLower(q.Title), search) &&
			!strings.Contains(strings.ToLower(q.Body), search) {
			continue
		}
		all = append(all, q)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	start := filter.Offset
	if start >= len(all) {
		return []*domain.QuestionSummary{}, nil
	}
	end := len(all)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	out := make([]*domain.QuestionSummary, 0, end-start)
	for _, q := range all[start:end] {
		full := s.hydrateQuestion(q)
		summary := &domain.QuestionSummary{
			ID:          q.ID,
			Title:       q.Title,
			Body:        q.Body,
			UserID:      q.UserID,
			CourseID:    q.CourseID,
			ViewCount:   q.ViewCount,
			Score:       q.Score,
			IsAnonymous: q.IsAnonymous,
			Tags:        full.TagNames(),
			CreatedAt:   q.CreatedAt,
			UpdatedAt:   q.UpdatedAt,
		}
		if full.Author != nil {
			summary.FirstName, summary.LastName = full.Author.FirstName, full.Author.LastName
		}
		if full.Course != nil {
			summary.CourseName = full.Course.Name
		}
		for _, a := range s.answers {
			if a.QuestionID == q.ID {
				summary.AnswerCount++
			}
		}
		counts := s.countVotes(domain.QuestionTarget(q.ID))
		summary.UpVotes, summary.DownVotes = counts.UpVotes, counts.DownVotes
		out = append(out, summary)
	}
	return out, nil
}

func (s *Store) GetQuestionByID(ctx context.Context, id int64) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, notFound("question", id)
	}
	return s.hydrateQuestion(q), nil
}

func (s *Store) IncrementViewCount(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return notFound("question", id)
	}
	q.ViewCount++
	return nil
}

func (s *Store) UpdateQuestion(ctx context.Context, id int64, upd domain.QuestionUpdate) (*domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, notFound("question", id)
	}
	q.Title = upd.Title
	q.Body = upd.Body
	q.IsAnonymous = upd.IsAnonymous
	q.UpdatedAt = now()
	return s.hydrateQuestion(q), nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return false, nil
	}
	for aID, a := range s.answers {
		if a.QuestionID == id {
			s.deleteAnswerLocked(aID)
		}
	}
	target := domain.QuestionTarget(id)
	for cID, c := range s.comments {
		if target.Matches(c.QuestionID, c.AnswerID) {
			delete(s.comments, cID)
		}
	}
	for vID, v := range s.votes {
		if target.Matches(v.QuestionID, v.AnswerID) {
			delete(s.votes, vID)
		}
	}
	delete(s.questionTags, id)
	delete(s.questions, id)
	return true, nil
}

// === Answer Methods ===

func (s *Store) hydrateAnswer(a *domain.Answer) *domain.Answer {
	out := *a
	out.Author = s.author(a.UserID)
	return &out
}

func (s *Store) CreateAnswer(ctx context.Context, answer *domain.Answer) (*domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[answer.QuestionID]; !ok {
		return nil, notFound("question", answer.QuestionID)
	}
	if _, ok := s.users[answer.UserID]; !ok {
		return nil, notFound("user", answer.UserID)
	}
	a := *answer
	a.ID = s.nextID()
	a.IsAccepted, a.Score = false, 0
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt
	a.Author = nil
	s.answers[a.ID] = &a
	return s.hydrateAnswer(&a), nil
}

func (s *Store) GetAnswerByID(ctx context.Context, id int64) (*domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.answers[id]
	if !ok {
		return nil, notFound("answer", id)
	}
	return s.hydrateAnswer(a), nil
}

func (s *Store) GetAnswersByQuestionID(ctx context.Context, questionID int64) ([]*domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Answer, 0)
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			out = append(out, s.hydrateAnswer(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsAccepted != b.IsAccepted {
			return a.IsAccepted
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) UpdateAnswer(ctx context.Context, id int64, upd domain.AnswerUpdate) (*domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[id]
	if !ok {
		return nil, notFound("answer", id)
	}
	a.Body = upd.Body
	a.IsAnonymous = upd.IsAnonymous
	a.UpdatedAt = now()
	return s.hydrateAnswer(a), nil
}

func (s *Store) deleteAnswerLocked(id int64) {
	target := domain.AnswerTarget(id)
	for cID, c := range s.comments {
		if target.Matches(c.QuestionID, c.AnswerID) {
			delete(s.comments, cID)
		}
	}
	for vID, v := range s.votes {
		if target.Matches(v.QuestionID, v.AnswerID) {
			delete(s.votes, vID)
		}
	}
	delete(s.answers, id)
}

func (s *Store) DeleteAnswer(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.answers[id]; !ok {
		return false, nil
	}
	s.deleteAnswerLocked(id)
	return true, nil
}

func (s *Store) AcceptAnswer(ctx context.Context, id int64) (*domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[id]
	if !ok {
		return nil, notFound("answer", id)
	}
	ts := now()
	for _, other := range s.answers {
		if other.QuestionID == a.QuestionID && other.IsAccepted {
			other.IsAccepted = false
			other.UpdatedAt = ts
		}
	}
	a.IsAccepted = true
	a.UpdatedAt = ts
	return s.hydrateAnswer(a), nil
}

// === Comment Methods ===

func (s *Store) hydrateComment(c *domain.Comment) *domain.Comment {
	out := *c
	out.Author = s.author(c.UserID)
	return &out
}

func (s *Store) targetExists(t domain.Target) bool {
	switch t.Kind {
	case domain.TargetQuestion:
		_, ok := s.questions[t.ID]
		return ok
	case domain.TargetAnswer:
		_, ok := s.answers[t.ID]
		return ok
	}
	return false
}

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	target, _ := comment.Target()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.targetExists(target) {
		return nil, notFound(target.Kind.String(), target.ID)
	}
	if _, ok := s.users[comment.UserID]; !ok {
		return nil, notFound("user", comment.UserID)
	}
	c := *comment
	c.ID = s.nextID()
	c.QuestionID, c.AnswerID = target.Columns()
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	c.Author = nil
	s.comments[c.ID] = &c
	return s.hydrateComment(&c), nil
}

func (s *Store) GetCommentByID(ctx context.Context, id int64) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, notFound("comment", id)
	}
	return s.hydrateComment(c), nil
}

func (s *Store) GetCommentsByTarget(ctx context.Context, target domain.Target) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Comment, 0)
	for _, c := range s.comments {
		if target.Matches(c.QuestionID, c.AnswerID) {
			out = append(out, s.hydrateComment(c))
		}
	}
	sortComments(out)
	return out, nil
}

// sortComments сортирует по времени создания, чтобы порядок был стабильным.
func sortComments(comments []*domain.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
}

func (s *Store) UpdateComment(ctx context.Context, id int64, body string) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, notFound("comment", id)
	}
	c.Body = body
	c.UpdatedAt = now()
	return s.hydrateComment(c), nil
}

func (s *Store) DeleteComment(ctx context.Context, id, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.UserID != userID {
		return false, nil
	}
	delete(s.comments, id)
	return true, nil
}

// === Vote Methods ===

func (s *Store) ToggleVote(ctx context.Context, userID int64, target domain.Target, voteType domain.VoteType) (domain.VoteAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.targetExists(target) {
		return 0, notFound(target.Kind.String(), target.ID)
	}

	var existing *domain.Vote
	for _, v := range s.votes {
		if v.UserID == userID && target.Matches(v.QuestionID, v.AnswerID) {
			existing = v
			break
		}
	}

	action := domain.DecideVote(existing, voteType)
	if existing != nil {
		delete(s.votes, existing.ID)
	}
	if action != domain.VoteRemove {
		v := &domain.Vote{ID: s.nextID(), UserID: userID, VoteType: voteType, CreatedAt: now()}
		v.QuestionID, v.AnswerID = target.Columns()
		s.votes[v.ID] = v
	}

	score := s.countVotes(target).Score()
	switch target.Kind {
	case domain.TargetQuestion:
		s.questions[target.ID].Score = score
	case domain.TargetAnswer:
		s.answers[target.ID].Score = score
	}
	return action, nil
}

func (s *Store) countVotes(target domain.Target) domain.VoteCounts {
	var counts domain.VoteCounts
	for _, v := range s.votes {
		if target.Matches(v.QuestionID, v.AnswerID) {
			counts.Add(v.VoteType)
		}
	}
	return counts
}

func (s *Store) CountVotes(ctx context.Context, target domain.Target) (domain.VoteCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.countVotes(target), nil
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByAnswerIDs(ctx context.Context, answerIDs []int64) (map[int64][]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[int64][]*domain.Comment, len(answerIDs))
	wanted := make(map[int64]struct{}, len(answerIDs))
	for _, id := range answerIDs {
		wanted[id] = struct{}{}
	}
	for _, c := range s.comments {
		if c.AnswerID == nil {
			continue
		}
		if _, ok := wanted[*c.AnswerID]; ok {
			results[*c.AnswerID] = append(results[*c.AnswerID], s.hydrateComment(c))
		}
	}
	// Важно: Dataloader'у нужны отсортированные данные для консистентности
	for _, list := range results {
		sortComments(list)
	}
	return results, nil
}

func (s *Store) CountVotesByAnswerIDs(ctx context.Context, answerIDs []int64) (map[int64]domain.VoteCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[int64]domain.VoteCounts, len(answerIDs))
	for _, id := range answerIDs {
		results[id] = s.countVotes(domain.AnswerTarget(id))
	}
	return results, nil
}
