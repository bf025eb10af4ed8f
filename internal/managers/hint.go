package managers

import (
	"context"

	"github.com/udovin/ctf/internal/core"
	"github.com/udovin/ctf/internal/models"
	"github.com/udovin/ctf/internal/pkg/locks"
)

// HintManager unlocks hints.
//
// Unlock never charges points. Costs of unlocked hints are deducted
// by SubmissionManager when challenge is solved.
type HintManager struct {
	core        *core.Core
	challenges  *models.ChallengeStore
	hintUnlocks *models.HintUnlockStore
	userLocks   *locks.KeyedMutex[string]
}

func NewHintManager(core *core.Core) *HintManager {
	return &HintManager{
		core:        core,
		challenges:  core.Challenges,
		hintUnlocks: core.HintUnlocks,
		userLocks:   core.UserLocks,
	}
}

// Unlock reveals hint of challenge for user.
func (m *HintManager) Unlock(
	ctx context.Context, challengeID, hintID, userID string,
) (models.Hint, error) {
	if err := validateUserID(userID); err != nil {
		return models.Hint{}, err
	}
	challenge, err := m.challenges.Get(challengeID)
	if err != nil {
		return models.Hint{}, err
	}
	hint, ok := challenge.GetHint(hintID)
	if !ok {
		return models.Hint{}, &models.NotFoundError{Kind: "hint", ID: hintID}
	}
	unlock, err := m.userLocks.Lock(ctx, userID)
	if err != nil {
		return models.Hint{}, err
	}
	defer unlock()
	if m.hintUnlocks.IsUnlocked(userID, challenge.ID, hint.ID) {
		return hint, nil
	}
	if _, err := m.core.Commit(ctx, models.UnlockHintEvent, models.UnlockHintPayload{
		UserID:      userID,
		ChallengeID: challenge.ID,
		HintID:      hint.ID,
	}); err != nil {
		return models.Hint{}, err
	}
	return hint, nil
}

// IsUnlocked returns true if user unlocked hint.
func (m *HintManager) IsUnlocked(challengeID, hintID, userID string) bool {
	if userID == "" {
		return false
	}
	return m.hintUnlocks.IsUnlocked(userID, challengeID, hintID)
}

// Penalty returns amount of points that will be deducted from
// challenge points when user solves it.
func (m *HintManager) Penalty(challenge models.Challenge, userID string) int {
	return m.hintUnlocks.HintPenalty(userID, challenge)
}
