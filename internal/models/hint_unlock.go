package models

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type hintUnlockKey struct {
	UserID      string
	ChallengeID string
}

// HintUnlockStore tracks hints unlocked by users.
//
// Unlock does not charge anything. Costs of unlocked hints are
// deducted once when user solves challenge.
type HintUnlockStore struct {
	mutex   sync.RWMutex
	unlocks map[hintUnlockKey]map[string]struct{}
}

// NewHintUnlockStore creates a new instance of HintUnlockStore.
func NewHintUnlockStore() *HintUnlockStore {
	return &HintUnlockStore{
		unlocks: map[hintUnlockKey]map[string]struct{}{},
	}
}

// Unlock records that user unlocked hint of challenge.
//
// Returns false when hint was already unlocked.
func (s *HintUnlockStore) Unlock(userID, challengeID, hintID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	key := hintUnlockKey{UserID: userID, ChallengeID: challengeID}
	hints, ok := s.unlocks[key]
	if !ok {
		hints = map[string]struct{}{}
		s.unlocks[key] = hints
	}
	if _, ok := hints[hintID]; ok {
		return false
	}
	hints[hintID] = struct{}{}
	return true
}

// IsUnlocked returns true if user unlocked hint of challenge.
func (s *HintUnlockStore) IsUnlocked(userID, challengeID, hintID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	key := hintUnlockKey{UserID: userID, ChallengeID: challengeID}
	_, ok := s.unlocks[key][hintID]
	return ok
}

// FindByUserChallenge returns sorted IDs of hints unlocked by user
// for challenge.
func (s *HintUnlockStore) FindByUserChallenge(userID, challengeID string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	key := hintUnlockKey{UserID: userID, ChallengeID: challengeID}
	ids := maps.Keys(s.unlocks[key])
	slices.Sort(ids)
	return ids
}

// HintPenalty returns total cost of hints of challenge unlocked by user.
func (s *HintUnlockStore) HintPenalty(userID string, challenge Challenge) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	hints := s.unlocks[hintUnlockKey{UserID: userID, ChallengeID: challenge.ID}]
	penalty := 0
	for _, hint := range challenge.Hints {
		if _, ok := hints[hint.ID]; ok {
			penalty += hint.Cost
		}
	}
	return penalty
}
