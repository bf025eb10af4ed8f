package models

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/sha3"
)

type Category int

const (
	WebCategory       Category = 1
	CryptoCategory    Category = 2
	ForensicsCategory Category = 3
	ReverseCategory   Category = 4
	StegoCategory     Category = 5
)

// String returns string representation.
func (v Category) String() string {
	switch v {
	case WebCategory:
		return "web"
	case CryptoCategory:
		return "crypto"
	case ForensicsCategory:
		return "forensics"
	case ReverseCategory:
		return "reverse"
	case StegoCategory:
		return "stego"
	default:
		return fmt.Sprintf("Category(%d)", v)
	}
}

func (v Category) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Category) UnmarshalText(data []byte) error {
	switch s := string(data); s {
	case "web":
		*v = WebCategory
	case "crypto":
		*v = CryptoCategory
	case "forensics":
		*v = ForensicsCategory
	case "reverse":
		*v = ReverseCategory
	case "stego":
		*v = StegoCategory
	default:
		return fmt.Errorf("unsupported category: %q", s)
	}
	return nil
}

type Difficulty int

const (
	EasyDifficulty   Difficulty = 1
	MediumDifficulty Difficulty = 2
	HardDifficulty   Difficulty = 3
)

// String returns string representation.
func (v Difficulty) String() string {
	switch v {
	case EasyDifficulty:
		return "easy"
	case MediumDifficulty:
		return "medium"
	case HardDifficulty:
		return "hard"
	default:
		return fmt.Sprintf("Difficulty(%d)", v)
	}
}

func (v Difficulty) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Difficulty) UnmarshalText(data []byte) error {
	switch s := string(data); s {
	case "easy":
		*v = EasyDifficulty
	case "medium":
		*v = MediumDifficulty
	case "hard":
		*v = HardDifficulty
	default:
		return fmt.Errorf("unsupported difficulty: %q", s)
	}
	return nil
}

// Hint represents optional text that reduces points of challenge.
type Hint struct {
	ID   string
	Text string
	Cost int
}

// Challenge represents a challenge.
//
// Flag is kept only as SHA3-256 digest and never leaves the model.
type Challenge struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Category    Category
	Difficulty  Difficulty
	Points      int
	Hints       []Hint
	// SolvedBy contains solvers in order of solving.
	SolvedBy   []string
	flagDigest []byte
}

// Clone creates copy of challenge.
func (o Challenge) Clone() Challenge {
	o.Hints = append([]Hint(nil), o.Hints...)
	o.SolvedBy = append([]string(nil), o.SolvedBy...)
	return o
}

// SetFlag sets secret flag of challenge.
func (o *Challenge) SetFlag(flag string) {
	digest := sha3.Sum256([]byte(flag))
	o.flagDigest = digest[:]
}

// HasFlag returns true if flag is set.
func (o Challenge) HasFlag() bool {
	return len(o.flagDigest) > 0
}

// CheckFlag compares flag with secret flag of challenge.
//
// Comparison is exact and case-sensitive.
func (o Challenge) CheckFlag(flag string) bool {
	if !o.HasFlag() {
		return false
	}
	digest := sha3.Sum256([]byte(flag))
	return subtle.ConstantTimeCompare(digest[:], o.flagDigest) == 1
}

// GetHint returns hint with specified ID.
func (o Challenge) GetHint(id string) (Hint, bool) {
	for _, hint := range o.Hints {
		if hint.ID == id {
			return hint, true
		}
	}
	return Hint{}, false
}

// IsSolvedBy returns true if user solved challenge.
func (o Challenge) IsSolvedBy(userID string) bool {
	for _, id := range o.SolvedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Validate checks that challenge is well-formed.
func (o Challenge) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return invalid("id", "should not be empty")
	}
	if strings.TrimSpace(o.Title) == "" {
		return invalid("title", "should not be empty")
	}
	if o.Category < WebCategory || o.Category > StegoCategory {
		return invalid("category", fmt.Sprintf("unsupported %s", o.Category))
	}
	if o.Difficulty < EasyDifficulty || o.Difficulty > HardDifficulty {
		return invalid("difficulty", fmt.Sprintf("unsupported %s", o.Difficulty))
	}
	if o.Points <= 0 {
		return invalid("points", "should be positive")
	}
	if !o.HasFlag() {
		return invalid("flag", "should not be empty")
	}
	hints := map[string]struct{}{}
	for _, hint := range o.Hints {
		if strings.TrimSpace(hint.ID) == "" {
			return invalid("hints", "hint id should not be empty")
		}
		if _, ok := hints[hint.ID]; ok {
			return invalid("hints", fmt.Sprintf("duplicate hint %q", hint.ID))
		}
		if hint.Cost < 0 {
			return invalid("hints", fmt.Sprintf("hint %q has negative cost", hint.ID))
		}
		hints[hint.ID] = struct{}{}
	}
	return nil
}

type challengeEntry struct {
	challenge Challenge
	solvers   map[string]struct{}
}

// ChallengeStore represents store for challenges.
type ChallengeStore struct {
	mutex      sync.RWMutex
	challenges map[string]*challengeEntry
	slugs      map[string]string
	order      []string
}

// NewChallengeStore creates a new instance of ChallengeStore.
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		challenges: map[string]*challengeEntry{},
		slugs:      map[string]string{},
	}
}

// Create adds challenge to the end of store.
//
// Challenge slug is derived from title when empty.
func (s *ChallengeStore) Create(challenge Challenge) error {
	if err := challenge.Validate(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.challenges[challenge.ID]; ok {
		return invalid("id", fmt.Sprintf("duplicate challenge %q", challenge.ID))
	}
	challenge = challenge.Clone()
	challenge.Slug = s.uniqueSlugUnlocked(challenge)
	entry := challengeEntry{
		challenge: challenge,
		solvers:   map[string]struct{}{},
	}
	for _, userID := range challenge.SolvedBy {
		entry.solvers[userID] = struct{}{}
	}
	s.challenges[challenge.ID] = &entry
	s.slugs[challenge.Slug] = challenge.ID
	s.order = append(s.order, challenge.ID)
	return nil
}

func (s *ChallengeStore) uniqueSlugUnlocked(challenge Challenge) string {
	base := challenge.Slug
	if base == "" {
		base = slug.Make(challenge.Title)
	}
	if base == "" {
		base = slug.Make(challenge.ID)
	}
	name := base
	for i := 2; ; i++ {
		if _, ok := s.slugs[name]; !ok {
			return name
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}

// All returns all challenges in order of creation.
func (s *ChallengeStore) All() []Challenge {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	challenges := make([]Challenge, 0, len(s.order))
	for _, id := range s.order {
		challenges = append(challenges, s.challenges[id].challenge.Clone())
	}
	return challenges
}

// Get returns challenge by ID.
func (s *ChallengeStore) Get(id string) (Challenge, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if entry, ok := s.challenges[id]; ok {
		return entry.challenge.Clone(), nil
	}
	return Challenge{}, notFound("challenge", id)
}

// GetBySlug returns challenge by slug.
func (s *ChallengeStore) GetBySlug(slug string) (Challenge, error) {
	s.mutex.RLock()
	id, ok := s.slugs[slug]
	s.mutex.RUnlock()
	if !ok {
		return Challenge{}, notFound("challenge", slug)
	}
	return s.Get(id)
}

// IsSolved returns true if user already solved challenge.
func (s *ChallengeStore) IsSolved(challengeID, userID string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	entry, ok := s.challenges[challengeID]
	if !ok {
		return false, notFound("challenge", challengeID)
	}
	_, solved := entry.solvers[userID]
	return solved, nil
}

// MarkSolved adds user to solvers of challenge.
//
// Returns false when user is already a solver.
func (s *ChallengeStore) MarkSolved(challengeID, userID string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	entry, ok := s.challenges[challengeID]
	if !ok {
		return false, notFound("challenge", challengeID)
	}
	if _, ok := entry.solvers[userID]; ok {
		return false, nil
	}
	entry.solvers[userID] = struct{}{}
	entry.challenge.SolvedBy = append(entry.challenge.SolvedBy, userID)
	return true, nil
}

// Len returns amount of challenges.
func (s *ChallengeStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.order)
}
