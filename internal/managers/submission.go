package managers

import (
	"context"
	"strings"

	"github.com/udovin/ctf/internal/core"
	"github.com/udovin/ctf/internal/models"
	"github.com/udovin/ctf/internal/pkg/locks"
	"github.com/udovin/ctf/internal/pkg/logs"
)

// SubmissionResult represents result of flag submission.
type SubmissionResult struct {
	Correct       bool
	AlreadySolved bool
	PointsAwarded int
}

// SubmissionManager checks flags and awards points.
type SubmissionManager struct {
	core        *core.Core
	challenges  *models.ChallengeStore
	users       *models.UserStore
	hintUnlocks *models.HintUnlockStore
	userLocks   *locks.KeyedMutex[string]
}

func NewSubmissionManager(core *core.Core) *SubmissionManager {
	return &SubmissionManager{
		core:        core,
		challenges:  core.Challenges,
		users:       core.Users,
		hintUnlocks: core.HintUnlocks,
		userLocks:   core.UserLocks,
	}
}

// Submit checks flag of challenge submitted by user.
//
// Correct flag marks challenge as solved and awards base points of
// challenge minus costs of hints unlocked by user. Repeated correct
// submissions award nothing.
func (m *SubmissionManager) Submit(
	ctx context.Context, challengeID, flag, userID string,
) (SubmissionResult, error) {
	if err := validateUserID(userID); err != nil {
		return SubmissionResult{}, err
	}
	challenge, err := m.challenges.Get(challengeID)
	if err != nil {
		return SubmissionResult{}, err
	}
	if strings.TrimSpace(flag) == "" {
		return SubmissionResult{}, &models.ValidationError{
			Field: "flag", Message: "should not be empty",
		}
	}
	unlock, err := m.userLocks.Lock(ctx, userID)
	if err != nil {
		return SubmissionResult{}, err
	}
	defer unlock()
	solved, err := m.challenges.IsSolved(challenge.ID, userID)
	if err != nil {
		return SubmissionResult{}, err
	}
	if solved {
		return SubmissionResult{Correct: true, AlreadySolved: true}, nil
	}
	logger := m.core.Logger().With(
		logs.Any("challenge_id", challenge.ID), logs.Any("user_id", userID),
	)
	if !challenge.CheckFlag(flag) {
		logger.Debug("Wrong flag submitted")
		return SubmissionResult{}, nil
	}
	points := challenge.Points - m.hintUnlocks.HintPenalty(userID, challenge)
	if points < 0 {
		points = 0
	}
	payload := models.SolveChallengePayload{
		UserID:      userID,
		ChallengeID: challenge.ID,
		Points:      points,
	}
	if user, err := m.users.Get(userID); err == nil {
		payload.TeamID = user.TeamID
	}
	if _, err := m.core.Commit(ctx, models.SolveChallengeEvent, payload); err != nil {
		return SubmissionResult{}, err
	}
	logger.Info("Challenge solved", logs.Any("points", points), logs.Any("team_id", payload.TeamID))
	return SubmissionResult{Correct: true, PointsAwarded: points}, nil
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &models.ValidationError{Field: "user_id", Message: "should not be empty"}
	}
	return nil
}
