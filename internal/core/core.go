// Package core owns stores of competition and the event journal.
package core

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/udovin/gosql"

	"github.com/udovin/ctf/internal/config"
	"github.com/udovin/ctf/internal/db"
	"github.com/udovin/ctf/internal/models"
	"github.com/udovin/ctf/internal/pkg/locks"
	"github.com/udovin/ctf/internal/pkg/logs"
	"github.com/udovin/ctf/internal/seed"
)

const journalTable = "ctf_event"

// Core manages all available resources.
type Core struct {
	// Config contains config.
	Config config.Config
	// Challenges contains challenge store.
	Challenges *models.ChallengeStore
	// Teams contains team store.
	Teams *models.TeamStore
	// Users contains user store.
	Users *models.UserStore
	// HintUnlocks contains hint unlock store.
	HintUnlocks *models.HintUnlockStore
	// UserLocks serializes state changes of single user.
	UserLocks *locks.KeyedMutex[string]
	// DB stores database connection.
	//
	// DB is nil when journal is disabled.
	DB *gosql.DB
	//
	context context.Context
	cancel  context.CancelFunc
	//
	journal     db.Journal
	commitMutex sync.Mutex
	// logger contains logger.
	logger *logs.Logger
}

// NewCore creates core instance from config.
func NewCore(cfg config.Config) (*Core, error) {
	c := Core{
		Config: cfg,
		logger: logs.NewLogger(log.Lvl(cfg.LogLevel)),
	}
	if cfg.DB == nil {
		c.journal = db.NewNopJournal()
		return &c, nil
	}
	conn, err := cfg.DB.Create()
	if err != nil {
		return nil, err
	}
	c.DB = conn
	c.journal = db.NewJournal(conn, journalTable)
	return &c, nil
}

// Logger returns logger instance.
func (c *Core) Logger() *logs.Logger {
	return c.logger
}

// SetupAllStores creates empty stores.
func (c *Core) SetupAllStores() {
	c.Challenges = models.NewChallengeStore()
	c.Teams = models.NewTeamStore()
	c.Users = models.NewUserStore()
	c.HintUnlocks = models.NewHintUnlockStore()
	c.UserLocks = locks.NewKeyedMutex[string]()
}

// Start loads challenges and replays event journal.
func (c *Core) Start() error {
	if c.cancel != nil {
		return fmt.Errorf("core already started")
	}
	c.Logger().Debug("Starting core")
	c.context, c.cancel = context.WithCancel(context.Background())
	if err := c.startStores(c.context); err != nil {
		c.Stop()
		return err
	}
	c.Logger().Debug("Core started")
	return nil
}

func (c *Core) startStores(ctx context.Context) error {
	if c.Challenges == nil {
		c.SetupAllStores()
	}
	if err := c.loadChallenges(); err != nil {
		return fmt.Errorf("cannot load challenges: %w", err)
	}
	if c.Config.Competition.DemoData {
		if err := c.loadDemoData(time.Now()); err != nil {
			return fmt.Errorf("cannot load demo data: %w", err)
		}
	}
	if err := c.journal.Init(ctx); err != nil {
		return fmt.Errorf("cannot init journal: %w", err)
	}
	return c.replay(ctx)
}

// Stop stops core.
func (c *Core) Stop() {
	if c.cancel == nil {
		return
	}
	c.Logger().Debug("Stopping core")
	defer c.Logger().Debug("Core stopped")
	c.cancel()
	c.context, c.cancel = nil, nil
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger().Error("Cannot close database", err)
		}
	}
}

// Context returns context that is cancelled when core is stopped.
func (c *Core) Context() context.Context {
	return c.context
}

// WrapTx runs function with transaction.
func (c *Core) WrapTx(
	ctx context.Context, fn func(ctx context.Context) error,
	options ...gosql.BeginTxOption,
) error {
	return gosql.WrapTx(ctx, c.DB, func(tx *sql.Tx) error {
		return fn(db.WithTx(ctx, tx))
	}, options...)
}

func (c *Core) loadChallenges() error {
	challenges := seed.Challenges()
	if file := c.Config.ChallengesFile; file != "" {
		loaded, err := seed.LoadChallengesFile(file)
		if err != nil {
			return err
		}
		challenges = loaded
	}
	for _, challenge := range challenges {
		if err := c.Challenges.Create(challenge); err != nil {
			return err
		}
	}
	c.Logger().Info("Challenges loaded", logs.Any("count", len(challenges)))
	return nil
}

func (c *Core) loadDemoData(now time.Time) error {
	teams := seed.DemoTeams(now)
	for _, team := range teams {
		if err := c.Teams.Create(team); err != nil {
			return err
		}
	}
	for _, user := range seed.DemoUsers(now) {
		if err := c.Users.Create(user); err != nil {
			return err
		}
	}
	// Demo scores have no per user history, so every member is
	// treated as a solver of challenges solved by team.
	for _, team := range teams {
		for _, challengeID := range team.Solved {
			for _, userID := range team.Members {
				if _, err := c.Challenges.MarkSolved(challengeID, userID); err != nil {
					return err
				}
				c.Users.AddSolved(userID, challengeID, now)
			}
		}
	}
	return nil
}
