package domain

import "fmt"

// VoteType - тип голоса, хранится строкой.
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// VoteTypeFromRating переводит значение rate-запроса (1 - за, 0 - против) в VoteType.
func VoteTypeFromRating(rating int) (VoteType, error) {
	switch rating {
	case 1:
		return Upvote, nil
	case 0:
		return Downvote, nil
	default:
		return "", fmt.Errorf("%w: vote type must be 0 or 1, got %d", ErrValidation, rating)
	}
}

// VoteAction - что нужно сделать с голосом пользователя.
type VoteAction int

const (
	VoteInsert VoteAction = iota + 1
	VoteRemove
	VoteSwitch
)

func (a VoteAction) String() string {
	switch a {
	case VoteInsert:
		return "insert"
	case VoteRemove:
		return "remove"
	case VoteSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// DecideVote реализует переключение голоса:
// голоса нет - добавить, тот же тип - снять, другой тип - заменить.
func DecideVote(existing *Vote, requested VoteType) VoteAction {
	switch {
	case existing == nil:
		return VoteInsert
	case existing.VoteType == requested:
		return VoteRemove
	default:
		return VoteSwitch
	}
}

// VoteCounts - агрегат голосов цели.
type VoteCounts struct {
	UpVotes   int64 `json:"upVotes"`
	DownVotes int64 `json:"downVotes"`
}

// Score - итоговый рейтинг.
func (c VoteCounts) Score() int64 {
	return c.UpVotes - c.DownVotes
}

// Add учитывает один голос.
func (c *VoteCounts) Add(t VoteType) {
	switch t {
	case Upvote:
		c.UpVotes++
	case Downvote:
		c.DownVotes++
	}
}
