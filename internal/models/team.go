package models

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/udovin/algo/btree"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const maxTeamNameLength = 64

// Team represents a team.
type Team struct {
	ID   string
	Name string
	// Code contains join code of team.
	Code string
	// Members contains members in order of joining.
	Members []string
	Score   int
	// ScoreTime contains time when team reached current score.
	ScoreTime time.Time
	// Solved contains solved challenges in order of solving.
	Solved    []string
	CreatedAt time.Time
}

// Clone creates copy of team.
func (o Team) Clone() Team {
	o.Members = append([]string(nil), o.Members...)
	o.Solved = append([]string(nil), o.Solved...)
	return o
}

// HasMember returns true if user is member of team.
func (o Team) HasMember(userID string) bool {
	for _, id := range o.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// NormalizeTeamName trims team name and validates it.
func NormalizeTeamName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", invalid("name", "should not be empty")
	}
	if len([]rune(name)) > maxTeamNameLength {
		return "", invalid("name", "is too long")
	}
	for _, c := range name {
		if unicode.IsControl(c) {
			return "", invalid("name", "contains control characters")
		}
	}
	return name, nil
}

// foldName returns key that is equal for names that differ only by case.
func foldName(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

type scoreKey struct {
	Score int
	Time  int64
	ID    string
}

func (k scoreKey) Less(o scoreKey) bool {
	if k.Score != o.Score {
		return k.Score > o.Score
	}
	if k.Time != o.Time {
		return k.Time < o.Time
	}
	return k.ID < o.ID
}

func lessScoreKey(lhs, rhs scoreKey) bool {
	return lhs.Less(rhs)
}

func makeScoreKey(team *Team) scoreKey {
	return scoreKey{
		Score: team.Score,
		Time:  team.ScoreTime.UnixNano(),
		ID:    team.ID,
	}
}

// TeamStore represents store for teams.
//
// Scoreboard order is kept in B-tree index and updated on each
// score change.
type TeamStore struct {
	mutex      sync.RWMutex
	teams      map[string]*Team
	names      map[string]string
	codes      map[string]string
	scoreboard btree.Map[scoreKey, struct{}]
}

// NewTeamStore creates a new instance of TeamStore.
func NewTeamStore() *TeamStore {
	return &TeamStore{
		teams:      map[string]*Team{},
		names:      map[string]string{},
		codes:      map[string]string{},
		scoreboard: btree.NewMap[scoreKey, struct{}](lessScoreKey),
	}
}

// Create adds a new team.
//
// ScoreTime defaults to CreatedAt.
func (s *TeamStore) Create(team Team) error {
	name, err := NormalizeTeamName(team.Name)
	if err != nil {
		return err
	}
	if team.ID == "" {
		return invalid("id", "should not be empty")
	}
	if team.Code == "" {
		return invalid("code", "should not be empty")
	}
	if team.Score < 0 {
		return invalid("score", "should not be negative")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.teams[team.ID]; ok {
		return invalid("id", "team already exists")
	}
	folded := foldName(name)
	if _, ok := s.names[folded]; ok {
		return &DuplicateNameError{Kind: "team", Name: name}
	}
	if _, ok := s.codes[team.Code]; ok {
		return invalid("code", "team code already exists")
	}
	team = team.Clone()
	team.Name = name
	if team.ScoreTime.IsZero() {
		team.ScoreTime = team.CreatedAt
	}
	s.teams[team.ID] = &team
	s.names[folded] = team.ID
	s.codes[team.Code] = team.ID
	s.scoreboard.Set(makeScoreKey(&team), struct{}{})
	return nil
}

// Get returns team by ID.
func (s *TeamStore) Get(id string) (Team, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if team, ok := s.teams[id]; ok {
		return team.Clone(), nil
	}
	return Team{}, notFound("team", id)
}

// GetByCode returns team by join code.
func (s *TeamStore) GetByCode(code string) (Team, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if id, ok := s.codes[code]; ok {
		return s.teams[id].Clone(), nil
	}
	return Team{}, notFound("code", code)
}

// HasName returns true if team name is taken.
func (s *TeamStore) HasName(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.names[foldName(name)]
	return ok
}

// HasCode returns true if join code is taken.
func (s *TeamStore) HasCode(code string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.codes[code]
	return ok
}

// AddMember adds user to team roster.
func (s *TeamStore) AddMember(teamID, userID string, maxSize int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return notFound("team", teamID)
	}
	if team.HasMember(userID) {
		return &AlreadyOnTeamError{UserID: userID, TeamID: teamID}
	}
	if maxSize > 0 && len(team.Members) >= maxSize {
		return &TeamFullError{TeamID: teamID, Size: len(team.Members)}
	}
	team.Members = append(team.Members, userID)
	return nil
}

// AddScore adds delta to team score.
//
// Score never drops below zero. ScoreTime is updated only when
// score changes.
func (s *TeamStore) AddScore(teamID string, delta int, now time.Time) (Team, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return Team{}, notFound("team", teamID)
	}
	score := team.Score + delta
	if score < 0 {
		score = 0
	}
	if score != team.Score {
		s.scoreboard.Delete(makeScoreKey(team))
		team.Score, team.ScoreTime = score, now
		s.scoreboard.Set(makeScoreKey(team), struct{}{})
	}
	return team.Clone(), nil
}

// AddSolved adds challenge to solved challenges of team.
func (s *TeamStore) AddSolved(teamID, challengeID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return notFound("team", teamID)
	}
	for _, id := range team.Solved {
		if id == challengeID {
			return nil
		}
	}
	team.Solved = append(team.Solved, challengeID)
	return nil
}

// Scoreboard returns teams sorted by score descending.
//
// Ties are broken by time of reaching the score and then by team ID.
func (s *TeamStore) Scoreboard() []Team {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	teams := make([]Team, 0, len(s.teams))
	iter := s.scoreboard.Iter()
	for iter.Next() {
		teams = append(teams, s.teams[iter.Key().ID].Clone())
	}
	return teams
}

// Len returns amount of teams.
func (s *TeamStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.teams)
}
