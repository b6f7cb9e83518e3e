package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/storage"
)

// newMockStore поднимает Store поверх sqlmock с диалектом PostgreSQL.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := New(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return store, mock
}

var voteColumns = []string{"id", "user_id", "question_id", "answer_id", "vote_type", "created_at"}

func TestDialector(t *testing.T) {
	d, err := Dialector("postgres", "postgres://localhost/qa")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector("mysql", "user:pass@tcp(localhost:3306)/qa")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = Dialector("sqlite", "")
	assert.Error(t, err)
}

// expectTargetLock ожидает блокировку строки цели голосования.
func expectTargetLock(mock sqlmock.Sqlmock, table string, id int64, found bool) {
	rows := sqlmock.NewRows([]string{"id"})
	if found {
		rows.AddRow(id)
	}
	mock.ExpectQuery(`SELECT "id" FROM "` + table + `" WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(rows)
}

func TestToggleVote_InsertsNewVote(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	expectTargetLock(mock, "questions", 1, true)
	mock.ExpectQuery(`SELECT \* FROM "votes" WHERE user_id = \$1 AND \(question_id = \$2 AND answer_id IS NULL\)`).
		WithArgs(int64(5), int64(1), 1).
		WillReturnRows(sqlmock.NewRows(voteColumns))
	mock.ExpectQuery(`INSERT INTO "votes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(`SELECT COUNT\(CASE WHEN vote_type`).
		WillReturnRows(sqlmock.NewRows([]string{"up_votes", "down_votes"}).AddRow(1, 0))
	mock.ExpectExec(`UPDATE "questions" SET "score"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	action, err := store.ToggleVote(context.Background(), 5, domain.QuestionTarget(1), domain.Upvote)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteInsert, action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleVote_SameTypeRemovesVote(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	expectTargetLock(mock, "answers", 2, true)
	mock.ExpectQuery(`SELECT \* FROM "votes" WHERE user_id = .*answer_id = .*LIMIT`).
		WillReturnRows(sqlmock.NewRows(voteColumns).AddRow(3, 5, nil, 2, "upvote", time.Now()))
	mock.ExpectExec(`DELETE FROM "votes"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT\(CASE WHEN vote_type`).
		WillReturnRows(sqlmock.NewRows([]string{"up_votes", "down_votes"}).AddRow(0, 0))
	mock.ExpectExec(`UPDATE "answers" SET "score"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	action, err := store.ToggleVote(context.Background(), 5, domain.AnswerTarget(2), domain.Upvote)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteRemove, action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleVote_SwitchReplacesVote(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	expectTargetLock(mock, "answers", 2, true)
	mock.ExpectQuery(`SELECT \* FROM "votes" WHERE user_id = .*answer_id = .*LIMIT`).
		WillReturnRows(sqlmock.NewRows(voteColumns).AddRow(3, 5, nil, 2, "upvote", time.Now()))
	mock.ExpectExec(`DELETE FROM "votes" WHERE "votes"."id" = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "votes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(`SELECT COUNT\(CASE WHEN vote_type`).
		WillReturnRows(sqlmock.NewRows([]string{"up_votes", "down_votes"}).AddRow(0, 1))
	mock.ExpectExec(`UPDATE "answers" SET "score"`).
		WithArgs(int64(-1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	action, err := store.ToggleVote(context.Background(), 5, domain.AnswerTarget(2), domain.Downvote)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteSwitch, action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleVote_RollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	expectTargetLock(mock, "questions", 1, true)
	mock.ExpectQuery(`SELECT \* FROM "votes"`).
		WillReturnRows(sqlmock.NewRows(voteColumns).AddRow(3, 5, 1, nil, "upvote", time.Now()))
	mock.ExpectExec(`DELETE FROM "votes"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "votes"`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := store.ToggleVote(context.Background(), 5, domain.QuestionTarget(1), domain.Downvote)
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleVote_MissingTarget(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	expectTargetLock(mock, "questions", 404, false)
	mock.ExpectRollback()

	_, err := store.ToggleVote(context.Background(), 5, domain.QuestionTarget(404), domain.Upvote)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountVotes(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(CASE WHEN vote_type = .* FROM "votes" WHERE question_id = .* AND answer_id IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"up_votes", "down_votes"}).AddRow(4, 1))

	counts, err := store.CountVotes(context.Background(), domain.QuestionTarget(1))
	require.NoError(t, err)
	assert.Equal(t, domain.VoteCounts{UpVotes: 4, DownVotes: 1}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementViewCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "questions" SET "view_count"=view_count \+ \$1 WHERE id = \$2`).
		WithArgs(1, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, store.IncrementViewCount(context.Background(), 7))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "questions" SET "view_count"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	err := store.IncrementViewCount(context.Background(), 8)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteQuestion_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "questions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	deleted, err := store.DeleteQuestion(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteComment_ChecksOwnerInWhere(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "comments" WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(3), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	deleted, err := store.DeleteComment(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateComment_ValidationBeforeWrite(t *testing.T) {
	store, mock := newMockStore(t)
	q, a := int64(1), int64(2)

	_, err := store.CreateComment(context.Background(), &domain.Comment{Body: "x", UserID: 1, QuestionID: &q, AnswerID: &a})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = store.CreateComment(context.Background(), &domain.Comment{Body: "x", UserID: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Ни одного запроса к БД
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCourse_Duplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "courses" WHERE name = \$1`).
		WithArgs("Databases").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := store.CreateCourse(context.Background(), &domain.Course{Name: "Databases"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListQuery(t *testing.T) {
	query, args, err := listQuery(storage.QuestionFilter{Search: "Join", Limit: 20})
	require.NoError(t, err)
	assert.Contains(t, query, "FROM questions q JOIN users u ON u.id = q.user_id JOIN courses c ON c.id = q.course_id")
	assert.Contains(t, query, "WHERE (LOWER(q.title) LIKE ? OR LOWER(q.body) LIKE ?)")
	assert.Contains(t, query, "ORDER BY q.created_at DESC, q.id DESC LIMIT 20")
	assert.Equal(t, []any{"%join%", "%join%"}, args)

	query, args, err = listQuery(storage.QuestionFilter{})
	require.NoError(t, err)
	assert.NotContains(t, query, "LIKE")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func TestGetQuestions_Search(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT q.id, q.title, .* FROM questions q .* LIKE \$1 OR LOWER\(q.body\) LIKE \$2`).
		WithArgs("%sql%", "%sql%").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "body", "user_id", "course_id", "view_count", "score", "is_anonymous",
			"created_at", "updated_at", "first_name", "last_name", "course_name", "answer_count",
		}).AddRow(1, "SQL joins", "How?", 2, 3, 10, 1, false, now, now, "Ann", "Lee", "Databases", 2))
	mock.ExpectQuery(`SELECT question_tags.question_id, tags.name FROM "question_tags" JOIN tags`).
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "name"}).AddRow(1, "sql").AddRow(1, "joins"))
	mock.ExpectQuery(`SELECT question_id AS target_id, vote_type, COUNT\(\*\) AS total FROM "votes"`).
		WillReturnRows(sqlmock.NewRows([]string{"target_id", "vote_type", "total"}).
			AddRow(1, "upvote", 2).AddRow(1, "downvote", 1))

	list, err := store.GetQuestions(context.Background(), storage.QuestionFilter{Search: "SQL"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SQL joins", list[0].Title)
	assert.Equal(t, "Databases", list[0].CourseName)
	assert.EqualValues(t, 2, list[0].AnswerCount)
	assert.Equal(t, []string{"sql", "joins"}, list[0].Tags)
	assert.EqualValues(t, 2, list[0].UpVotes)
	assert.EqualValues(t, 1, list[0].DownVotes)
	require.NoError(t, mock.ExpectationsWereMet())
}

var questionColumns = []string{
	"id", "title", "body", "user_id", "course_id", "is_anonymous", "view_count", "score", "created_at", "updated_at",
}

// expectQuestionChecks ожидает начало транзакции создания вопроса до работы с тегами.
func expectQuestionChecks(mock sqlmock.Sqlmock, questionID int64) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "courses" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "questions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(questionID))
}

func TestCreateQuestion_ReusesExistingTag(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	expectQuestionChecks(mock, 7)
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE name = \$1 ORDER BY id ASC LIMIT \$2`).
		WithArgs("sql", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "sql"))
	mock.ExpectExec(`INSERT INTO "question_tags"`).
		WithArgs(int64(7), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Перечитывание вопроса с автором, курсом и тегами
	mock.ExpectQuery(`SELECT \* FROM "questions" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow(7, "SQL joins", "How?", 2, 4, false, 0, 0, now, now))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name"}).AddRow(2, "Ann", "Lee"))
	mock.ExpectQuery(`SELECT \* FROM "courses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(4, "Databases"))
	mock.ExpectQuery(`SELECT \* FROM "question_tags"`).
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "tag_id"}).AddRow(7, 3))
	mock.ExpectQuery(`SELECT \* FROM "tags"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "sql"))

	q, err := store.CreateQuestion(context.Background(), &domain.Question{
		Title: "SQL joins", Body: "How?", UserID: 2, CourseID: 4,
	}, []string{"sql"})
	require.NoError(t, err)
	assert.EqualValues(t, 7, q.ID)
	require.Len(t, q.Tags, 1)
	assert.EqualValues(t, 3, q.Tags[0].ID)
	assert.Equal(t, "Databases", q.Course.Name)
	// INSERT INTO "tags" не выполнялся
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateQuestion_LinkFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	expectQuestionChecks(mock, 7)
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE name = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(`INSERT INTO "tags"`).
		WithArgs("joins").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(`INSERT INTO "question_tags"`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := store.CreateQuestion(context.Background(), &domain.Question{
		Title: "SQL joins", Body: "How?", UserID: 2, CourseID: 4,
	}, []string{"joins"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), `failed to link tag "joins"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAIUser_CreatesMissingUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE id = \$1`).
		WithArgs(domain.AIUserID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "users" .*"id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(domain.AIUserID))
	mock.ExpectExec(`SELECT setval\(pg_get_serial_sequence\('users', 'id'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.ensureAIUser(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAIUser_KeepsExistingUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE id = \$1`).
		WithArgs(domain.AIUserID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, store.ensureAIUser(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_ClosesPoolWhenPingFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	errDown := errors.New("connection refused")
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errDown)
	mock.ExpectClose()

	_, err = open(context.Background(), postgres.New(postgres.Config{Conn: db}), Config{
		Driver:         "postgres",
		ConnectRetries: 1,
		LogLevel:       logger.Silent,
	})
	assert.ErrorIs(t, err, errDown)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_ClosesPoolWhenInitialPingFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	errDown := errors.New("connection refused")
	mock.ExpectPing().WillReturnError(errDown)
	mock.ExpectClose()

	_, err = open(context.Background(), postgres.New(postgres.Config{Conn: db}), Config{
		Driver:         "postgres",
		ConnectRetries: 1,
		LogLevel:       logger.Silent,
	})
	assert.ErrorIs(t, err, errDown)
	require.NoError(t, mock.ExpectationsWereMet())
}
