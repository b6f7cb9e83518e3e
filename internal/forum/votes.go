package forum

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/live"
)

// Rate переключает голос пользователя за вопрос или ответ.
// rating: 1 - за, 0 - против. Повторный такой же голос снимает его.
// Счетчики в результате пересчитываются после коммита.
func (s *Service) Rate(ctx context.Context, userID int64, target domain.Target, rating int) (*domain.VoteResult, error) {
	fields := logrus.Fields{"target": target.String(), "user_id": userID}
	voteType, err := domain.VoteTypeFromRating(rating)
	if err != nil {
		return nil, s.logged(err, "invalid vote", fields)
	}

	action, err := s.store.ToggleVote(ctx, userID, target, voteType)
	if err != nil {
		return nil, s.logged(err, "failed to toggle vote", fields)
	}
	counts, err := s.store.CountVotes(ctx, target)
	if err != nil {
		return nil, s.logged(err, "failed to count votes", fields)
	}
	s.log.WithFields(fields).WithField("action", action.String()).Debug("vote toggled")

	result := &domain.VoteResult{
		Target:    target.Kind.String(),
		ID:        target.ID,
		UpVotes:   counts.UpVotes,
		DownVotes: counts.DownVotes,
		Score:     counts.Score(),
	}
	if questionID, err := s.questionOf(ctx, target); err == nil {
		s.hub.Publish(questionID, live.EventVoteChanged, result)
	}
	return result, nil
}

// questionOf возвращает id вопроса, к ленте которого относится цель.
func (s *Service) questionOf(ctx context.Context, target domain.Target) (int64, error) {
	if target.Kind == domain.TargetQuestion {
		return target.ID, nil
	}
	a, err := s.store.GetAnswerByID(ctx, target.ID)
	if err != nil {
		return 0, err
	}
	return a.QuestionID, nil
}
