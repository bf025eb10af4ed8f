package models

import (
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const maxUsernameLength = 32

// User represents a competition participant.
type User struct {
	ID       string
	Username string
	Email    string
	// TeamID contains ID of team or empty string.
	TeamID string
	// Score contains every point awarded to user.
	Score int
	// Solved contains solved challenges in order of solving.
	Solved    []string
	CreatedAt time.Time
}

// Clone creates copy of user.
func (o User) Clone() User {
	o.Solved = append([]string(nil), o.Solved...)
	return o
}

// HasTeam returns true if user is member of any team.
func (o User) HasTeam() bool {
	return o.TeamID != ""
}

// ValidateUsername checks username of user.
func ValidateUsername(username string) error {
	if username == "" {
		return invalid("username", "should not be empty")
	}
	if len(username) > maxUsernameLength {
		return invalid("username", "is too long")
	}
	for _, c := range username {
		if !isValidUsernameChar(c) {
			return invalid("username", "has invalid character")
		}
	}
	return nil
}

func isValidUsernameChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_' || c == '-'
}

// ValidateEmail checks email of user.
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email", "should not be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "is malformed")
	}
	return nil
}

// UserStore represents store for users.
type UserStore struct {
	mutex     sync.RWMutex
	users     map[string]*User
	usernames map[string]string
}

// NewUserStore creates a new instance of UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		users:     map[string]*User{},
		usernames: map[string]string{},
	}
}

// Create registers a new user.
func (s *UserStore) Create(user User) error {
	if user.ID == "" {
		return invalid("id", "should not be empty")
	}
	if err := ValidateUsername(user.Username); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return invalid("id", "user already exists")
	}
	key := strings.ToLower(user.Username)
	if _, ok := s.usernames[key]; ok {
		return &DuplicateNameError{Kind: "user", Name: user.Username}
	}
	user = user.Clone()
	s.users[user.ID] = &user
	s.usernames[key] = user.ID
	return nil
}

// HasUsername returns true if username is taken.
func (s *UserStore) HasUsername(username string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.usernames[strings.ToLower(username)]
	return ok
}

// Ensure returns user by ID and creates anonymous one when it is missing.
func (s *UserStore) Ensure(id string, now time.Time) (User, error) {
	if id == "" {
		return User{}, invalid("user_id", "should not be empty")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.ensureUnlocked(id, now).Clone(), nil
}

func (s *UserStore) ensureUnlocked(id string, now time.Time) *User {
	if user, ok := s.users[id]; ok {
		return user
	}
	user := User{ID: id, Username: s.uniqueUsernameUnlocked(id), CreatedAt: now}
	s.users[id] = &user
	s.usernames[strings.ToLower(user.Username)] = id
	return &user
}

// uniqueUsernameUnlocked returns username for anonymous user that does
// not clash with names of other users ignoring case.
func (s *UserStore) uniqueUsernameUnlocked(base string) string {
	name := base
	for i := 2; ; i++ {
		if _, ok := s.usernames[strings.ToLower(name)]; !ok {
			return name
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}

// Get returns user by ID.
func (s *UserStore) Get(id string) (User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if user, ok := s.users[id]; ok {
		return user.Clone(), nil
	}
	return User{}, notFound("user", id)
}

// All returns all users ordered by ID.
func (s *UserStore) All() []User {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ids := maps.Keys(s.users)
	slices.Sort(ids)
	users := make([]User, 0, len(ids))
	for _, id := range ids {
		users = append(users, s.users[id].Clone())
	}
	return users
}

// SetTeam assigns team to user.
//
// User can not change team once it is assigned.
func (s *UserStore) SetTeam(userID, teamID string, now time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	user := s.ensureUnlocked(userID, now)
	if user.TeamID != "" {
		return &AlreadyOnTeamError{UserID: userID, TeamID: user.TeamID}
	}
	user.TeamID = teamID
	return nil
}

// AddScore adds delta to user score. Score never drops below zero.
func (s *UserStore) AddScore(userID string, delta int, now time.Time) User {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	user := s.ensureUnlocked(userID, now)
	user.Score += delta
	if user.Score < 0 {
		user.Score = 0
	}
	return user.Clone()
}

// AddSolved adds challenge to solved challenges of user.
func (s *UserStore) AddSolved(userID, challengeID string, now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	user := s.ensureUnlocked(userID, now)
	if slices.Contains(user.Solved, challengeID) {
		return
	}
	user.Solved = append(user.Solved, challengeID)
}

// Len returns amount of users.
func (s *UserStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.users)
}
