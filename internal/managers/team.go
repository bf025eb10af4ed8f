package managers

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/gommon/random"

	"github.com/udovin/ctf/internal/core"
	"github.com/udovin/ctf/internal/models"
	"github.com/udovin/ctf/internal/pkg/locks"
	"github.com/udovin/ctf/internal/pkg/logs"
)

// TeamManager creates teams and manages their rosters.
type TeamManager struct {
	core        *core.Core
	teams       *models.TeamStore
	users       *models.UserStore
	userLocks   *locks.KeyedMutex[string]
	maxSize     int
	codeLength  int
	newTeamID   func() string
	newTeamCode func(length int) string
	// mutex serializes uniqueness checks and commits.
	mutex sync.Mutex
}

func NewTeamManager(core *core.Core) *TeamManager {
	return &TeamManager{
		core:        core,
		teams:       core.Teams,
		users:       core.Users,
		userLocks:   core.UserLocks,
		maxSize:     core.Config.Competition.MaxTeamSize,
		codeLength:  core.Config.Competition.TeamCodeLength,
		newTeamID:   uuid.NewString,
		newTeamCode: generateTeamCode,
	}
}

func generateTeamCode(length int) string {
	return random.String(uint8(length), random.Uppercase, random.Numeric)
}

// Create creates team with user as its founder.
func (m *TeamManager) Create(
	ctx context.Context, name, userID string,
) (models.Team, error) {
	name, err := models.NormalizeTeamName(name)
	if err != nil {
		return models.Team{}, err
	}
	if err := validateUserID(userID); err != nil {
		return models.Team{}, err
	}
	unlock, err := m.userLocks.Lock(ctx, userID)
	if err != nil {
		return models.Team{}, err
	}
	defer unlock()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if user, err := m.users.Get(userID); err == nil && user.HasTeam() {
		return models.Team{}, &models.AlreadyOnTeamError{
			UserID: userID, TeamID: user.TeamID,
		}
	}
	if m.teams.HasName(name) {
		return models.Team{}, &models.DuplicateNameError{Kind: "team", Name: name}
	}
	payload := models.CreateTeamPayload{
		TeamID: m.newTeamID(),
		Name:   name,
		Code:   m.uniqueCodeUnlocked(),
		UserID: userID,
	}
	if _, err := m.core.Commit(ctx, models.CreateTeamEvent, payload); err != nil {
		return models.Team{}, err
	}
	m.core.Logger().Info(
		"Team created",
		logs.Any("team_id", payload.TeamID),
		logs.Any("user_id", userID),
	)
	return m.teams.Get(payload.TeamID)
}

func (m *TeamManager) uniqueCodeUnlocked() string {
	for {
		code := m.newTeamCode(m.codeLength)
		if !m.teams.HasCode(code) {
			return code
		}
	}
}

// Join adds user to team with specified join code.
//
// Code is case-insensitive.
func (m *TeamManager) Join(
	ctx context.Context, code, userID string,
) (models.Team, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.Team{}, &models.ValidationError{
			Field: "code", Message: "should not be empty",
		}
	}
	if err := validateUserID(userID); err != nil {
		return models.Team{}, err
	}
	unlock, err := m.userLocks.Lock(ctx, userID)
	if err != nil {
		return models.Team{}, err
	}
	defer unlock()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	team, err := m.teams.GetByCode(code)
	if err != nil {
		return models.Team{}, err
	}
	if user, err := m.users.Get(userID); err == nil && user.HasTeam() {
		return models.Team{}, &models.AlreadyOnTeamError{
			UserID: userID, TeamID: user.TeamID,
		}
	}
	if m.maxSize > 0 && len(team.Members) >= m.maxSize {
		return models.Team{}, &models.TeamFullError{
			TeamID: team.ID, Size: len(team.Members),
		}
	}
	if _, err := m.core.Commit(ctx, models.JoinTeamEvent, models.JoinTeamPayload{
		TeamID: team.ID,
		UserID: userID,
	}); err != nil {
		return models.Team{}, err
	}
	m.core.Logger().Info(
		"Team joined",
		logs.Any("team_id", team.ID),
		logs.Any("user_id", userID),
	)
	return m.teams.Get(team.ID)
}

// Get returns team by ID.
func (m *TeamManager) Get(id string) (models.Team, error) {
	return m.teams.Get(id)
}
