package sqlstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/UkralStul/course-qa-service/internal/domain"
)

// targetModel возвращает модель таблицы, в которой живёт цель.
func targetModel(target domain.Target) (any, error) {
	switch target.Kind {
	case domain.TargetQuestion:
		return &domain.Question{}, nil
	case domain.TargetAnswer:
		return &domain.Answer{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown vote target", domain.ErrValidation)
	}
}

func (s *Store) ToggleVote(ctx context.Context, userID int64, target domain.Target, voteType domain.VoteType) (domain.VoteAction, error) {
	model, err := targetModel(target)
	if err != nil {
		return 0, err
	}

	var action domain.VoteAction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, model, target.Kind.String(), target.ID); err != nil {
			return err
		}

		where, id := target.Predicate()
		var votes []*domain.Vote
		err := tx.Where("user_id = ?", userID).
			Where(where, id).
			Limit(1).
			Find(&votes).Error
		if err != nil {
			return err
		}
		var existing *domain.Vote
		if len(votes) > 0 {
			existing = votes[0]
		}

		action = domain.DecideVote(existing, voteType)
		if existing != nil {
			if err := tx.Delete(&domain.Vote{}, existing.ID).Error; err != nil {
				return err
			}
		}
		if action != domain.VoteRemove {
			vote := &domain.Vote{UserID: userID, VoteType: voteType, CreatedAt: time.Now().UTC()}
			vote.QuestionID, vote.AnswerID = target.Columns()
			if err := tx.Create(vote).Error; err != nil {
				return err
			}
		}

		// Хранимый score пересчитывается в той же транзакции: по нему сортируются ответы.
		counts, err := countVotes(tx, target)
		if err != nil {
			return err
		}
		return tx.Model(model).Where("id = ?", target.ID).UpdateColumn("score", counts.Score()).Error
	})
	if err != nil {
		return 0, err
	}
	return action, nil
}

func countVotes(db *gorm.DB, target domain.Target) (domain.VoteCounts, error) {
	var row struct {
		UpVotes   int64
		DownVotes int64
	}
	where, id := target.Predicate()
	err := db.Model(&domain.Vote{}).
		Select("COUNT(CASE WHEN vote_type = ? THEN 1 END) AS up_votes, COUNT(CASE WHEN vote_type = ? THEN 1 END) AS down_votes",
			string(domain.Upvote), string(domain.Downvote)).
		Where(where, id).
		Scan(&row).Error
	if err != nil {
		return domain.VoteCounts{}, err
	}
	return domain.VoteCounts{UpVotes: row.UpVotes, DownVotes: row.DownVotes}, nil
}

func (s *Store) CountVotes(ctx context.Context, target domain.Target) (domain.VoteCounts, error) {
	return countVotes(s.db.WithContext(ctx), target)
}

// countVotesIn считает голоса за несколько целей одного вида одним запросом.
// column - колонка цели, other - колонка, которая должна быть пустой.
func countVotesIn(db *gorm.DB, column, other string, ids []int64) (map[int64]domain.VoteCounts, error) {
	var rows []struct {
		TargetID int64
		VoteType string
		Total    int64
	}
	err := db.Model(&domain.Vote{}).
		Select(column+" AS target_id, vote_type, COUNT(*) AS total").
		Where(column+" IN ? AND "+other+" IS NULL", ids).
		Group(column + ", vote_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[int64]domain.VoteCounts, len(ids))
	for _, r := range rows {
		counts := result[r.TargetID]
		switch domain.VoteType(r.VoteType) {
		case domain.Upvote:
			counts.UpVotes += r.Total
		case domain.Downvote:
			counts.DownVotes += r.Total
		}
		result[r.TargetID] = counts
	}
	return result, nil
}

func (s *Store) CountVotesByAnswerIDs(ctx context.Context, answerIDs []int64) (map[int64]domain.VoteCounts, error) {
	if len(answerIDs) == 0 {
		return map[int64]domain.VoteCounts{}, nil
	}
	return countVotesIn(s.db.WithContext(ctx), "answer_id", "question_id", answerIDs)
}
