package managers

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/udovin/ctf/internal/core"
	"github.com/udovin/ctf/internal/models"
)

// UserManager registers users.
type UserManager struct {
	core  *core.Core
	users *models.UserStore
	mutex sync.Mutex
}

func NewUserManager(core *core.Core) *UserManager {
	return &UserManager{core: core, users: core.Users}
}

// Register registers user with unique username.
func (m *UserManager) Register(
	ctx context.Context, username, email string,
) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := models.ValidateUsername(username); err != nil {
		return models.User{}, err
	}
	if err := models.ValidateEmail(email); err != nil {
		return models.User{}, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.users.HasUsername(username) {
		return models.User{}, &models.DuplicateNameError{Kind: "user", Name: username}
	}
	payload := models.RegisterUserPayload{
		UserID:   uuid.NewString(),
		Username: username,
		Email:    email,
	}
	if _, err := m.core.Commit(ctx, models.RegisterUserEvent, payload); err != nil {
		return models.User{}, err
	}
	return m.users.Get(payload.UserID)
}

// Get returns user by ID.
func (m *UserManager) Get(id string) (models.User, error) {
	return m.users.Get(id)
}
