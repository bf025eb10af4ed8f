package managers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/udovin/ctf/internal/core"
	"github.com/udovin/ctf/internal/models"
)

type ScoreboardRow struct {
	Place int
	Team  models.Team
}

type Scoreboard struct {
	Rows []ScoreboardRow
	// Time contains time when scoreboard was built.
	Time time.Time
}

// ScoreboardManager builds scoreboard of teams.
//
// When cache TTL is positive, scoreboard is rebuilt at most once per
// TTL and concurrent readers share single build.
type ScoreboardManager struct {
	teams *models.TeamStore
	ttl   time.Duration
	cache *scoreboardCache
	mutex sync.Mutex
}

type scoreboardCache struct {
	Done       <-chan struct{}
	Time       time.Time
	Scoreboard *Scoreboard
	Error      error
}

func NewScoreboardManager(core *core.Core) *ScoreboardManager {
	return &ScoreboardManager{
		teams: core.Teams,
		ttl:   time.Duration(core.Config.Competition.ScoreboardCacheTTL) * time.Second,
	}
}

// Build returns teams ordered by score with places.
//
// Readers waiting for build of another reader retry when that build
// was interrupted by its own context.
func (m *ScoreboardManager) Build(ctx context.Context) (*Scoreboard, error) {
	if m.ttl <= 0 {
		return m.doBuild(ctx)
	}
	now := models.GetNow(ctx)
	for {
		m.mutex.Lock()
		if cache := m.cache; cache != nil {
			select {
			case <-cache.Done:
				if cache.Error == nil && now.Sub(cache.Time) < m.ttl {
					m.mutex.Unlock()
					return cache.Scoreboard, nil
				}
			default:
				m.mutex.Unlock()
				select {
				case <-cache.Done:
					if isContextError(cache.Error) && ctx.Err() == nil {
						continue
					}
					return cache.Scoreboard, cache.Error
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
		return m.buildCache(ctx, now)
	}
}

// buildCache should be called with locked mutex.
func (m *ScoreboardManager) buildCache(ctx context.Context, now time.Time) (*Scoreboard, error) {
	done := make(chan struct{})
	defer close(done)
	cache := &scoreboardCache{Done: done, Time: now}
	m.cache = cache
	m.mutex.Unlock()
	cache.Scoreboard, cache.Error = m.doBuild(ctx)
	return cache.Scoreboard, cache.Error
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (m *ScoreboardManager) doBuild(ctx context.Context) (*Scoreboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	teams := m.teams.Scoreboard()
	scoreboard := Scoreboard{
		Rows: make([]ScoreboardRow, len(teams)),
		Time: models.GetNow(ctx),
	}
	for i, team := range teams {
		scoreboard.Rows[i] = ScoreboardRow{Place: i + 1, Team: team}
	}
	return &scoreboard, nil
}
