package core

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/udovin/ctf/internal/config"
	"github.com/udovin/ctf/internal/db"
	"github.com/udovin/ctf/internal/models"
)

func testSetupCore(tb testing.TB, cfg config.Config) *Core {
	cfg.SetDefaults()
	c, err := NewCore(cfg)
	if err != nil {
		tb.Fatal("Error:", err)
	}
	c.SetupAllStores()
	if err := c.Start(); err != nil {
		tb.Fatal("Error:", err)
	}
	tb.Cleanup(c.Stop)
	return c
}

func TestNewCore(t *testing.T) {
	c := testSetupCore(t, config.Config{})
	// Check that we can not start core twice.
	if err := c.Start(); err == nil {
		t.Fatal("Expected error")
	}
	if c.Challenges.Len() != 8 {
		t.Fatalf("Expected: %d, got: %d", 8, c.Challenges.Len())
	}
	if c.Teams.Len() != 0 {
		t.Fatalf("Expected: %d, got: %d", 0, c.Teams.Len())
	}
	// Check that we can stop core twice without no side effects.
	c.Stop()
	c.Stop()
}

func TestNewCore_Failure(t *testing.T) {
	cfg := config.Config{DB: &config.DB{}}
	if _, err := NewCore(cfg); err == nil {
		t.Fatal("Expected error while creating core")
	}
	c, err := NewCore(config.Config{ChallengesFile: filepath.Join(t.TempDir(), "missing.json")})
	if err != nil {
		t.Fatal("Error:", err)
	}
	if err := c.Start(); err == nil {
		t.Fatal("Expected error while starting core")
	}
}

func TestCoreDemoData(t *testing.T) {
	c := testSetupCore(t, config.Config{
		Competition: config.Competition{DemoData: true},
	})
	var ids []string
	for _, team := range c.Teams.Scoreboard() {
		ids = append(ids, team.ID)
	}
	if expected := []string{"t5", "t1", "t4", "t2", "t3"}; !reflect.DeepEqual(ids, expected) {
		t.Fatalf("Expected: %v, got: %v", expected, ids)
	}
	user, err := c.Users.Get("u7")
	if err != nil {
		t.Fatal("Error:", err)
	}
	if user.TeamID != "t4" {
		t.Fatalf("Expected: %q, got: %q", "t4", user.TeamID)
	}
	if expected := []string{"c1", "c5", "c7"}; !reflect.DeepEqual(user.Solved, expected) {
		t.Fatalf("Expected: %v, got: %v", expected, user.Solved)
	}
	for _, challengeID := range []string{"c1", "c5", "c7"} {
		if solved, _ := c.Challenges.IsSolved(challengeID, "u7"); !solved {
			t.Fatalf("Expected solved challenge %q", challengeID)
		}
	}
	if solved, _ := c.Challenges.IsSolved("c2", "u7"); solved {
		t.Fatal("Unexpected solved challenge")
	}
}

func testCommitEvents(tb testing.TB, c *Core) {
	ctx := models.WithNow(context.Background(), time.Unix(1000, 0))
	events := []struct {
		Kind    models.EventKind
		Payload any
	}{
		{models.RegisterUserEvent, models.RegisterUserPayload{UserID: "u1", Username: "neo", Email: "neo@example.com"}},
		{models.CreateTeamEvent, models.CreateTeamPayload{TeamID: "t1", Name: "Zion", Code: "ZION42", UserID: "u1"}},
		{models.JoinTeamEvent, models.JoinTeamPayload{TeamID: "t1", UserID: "u2"}},
		{models.UnlockHintEvent, models.UnlockHintPayload{UserID: "u1", ChallengeID: "c2", HintID: "h2"}},
		{models.SolveChallengeEvent, models.SolveChallengePayload{UserID: "u1", ChallengeID: "c2", TeamID: "t1", Points: 90}},
		{models.SolveChallengeEvent, models.SolveChallengePayload{UserID: "u2", ChallengeID: "c1", TeamID: "t1", Points: 100}},
	}
	for _, event := range events {
		if _, err := c.Commit(ctx, event.Kind, event.Payload); err != nil {
			tb.Fatal("Error:", err)
		}
	}
}

func checkCommittedState(tb testing.TB, c *Core) {
	team, err := c.Teams.Get("t1")
	if err != nil {
		tb.Fatal("Error:", err)
	}
	if team.Score != 190 {
		tb.Fatalf("Expected: %d, got: %d", 190, team.Score)
	}
	if expected := []string{"u1", "u2"}; !reflect.DeepEqual(team.Members, expected) {
		tb.Fatalf("Expected: %v, got: %v", expected, team.Members)
	}
	if expected := []string{"c2", "c1"}; !reflect.DeepEqual(team.Solved, expected) {
		tb.Fatalf("Expected: %v, got: %v", expected, team.Solved)
	}
	if !team.ScoreTime.Equal(time.Unix(1000, 0)) {
		tb.Fatalf("Unexpected score time: %v", team.ScoreTime)
	}
	user, err := c.Users.Get("u1")
	if err != nil {
		tb.Fatal("Error:", err)
	}
	if user.Username != "neo" || user.TeamID != "t1" || user.Score != 90 {
		tb.Fatalf("Unexpected user: %+v", user)
	}
	if !c.HintUnlocks.IsUnlocked("u1", "c2", "h2") {
		tb.Fatal("Expected unlocked hint")
	}
	if solved, _ := c.Challenges.IsSolved("c1", "u2"); !solved {
		tb.Fatal("Expected solved challenge")
	}
}

func TestCoreCommit(t *testing.T) {
	c := testSetupCore(t, config.Config{})
	testCommitEvents(t, c)
	checkCommittedState(t, c)
	ctx := context.Background()
	// Repeated solve does not change score.
	if _, err := c.Commit(ctx, models.SolveChallengeEvent, models.SolveChallengePayload{
		UserID: "u1", ChallengeID: "c2", TeamID: "t1", Points: 90,
	}); err != nil {
		t.Fatal("Error:", err)
	}
	checkCommittedState(t, c)
	var notFoundErr *models.NotFoundError
	if _, err := c.Commit(ctx, models.SolveChallengeEvent, models.SolveChallengePayload{
		UserID: "u1", ChallengeID: "c404",
	}); !errors.As(err, &notFoundErr) {
		t.Fatalf("Expected not found, got: %v", err)
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.Commit(cancelled, models.UnlockHintEvent, models.UnlockHintPayload{
		UserID: "u3", ChallengeID: "c1", HintID: "h1",
	}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected cancelled, got: %v", err)
	}
	if c.HintUnlocks.IsUnlocked("u3", "c1", "h1") {
		t.Fatal("Cancelled commit should not be applied")
	}
}

func TestCoreReplay(t *testing.T) {
	cfg := config.Config{
		DB: &config.DB{
			Options: config.SQLiteOptions{Path: filepath.Join(t.TempDir(), "ctf.db")},
		},
	}
	c := testSetupCore(t, cfg)
	testCommitEvents(t, c)
	checkCommittedState(t, c)
	c.Stop()
	replayed := testSetupCore(t, cfg)
	checkCommittedState(t, replayed)
	if replayed.Users.Len() != 2 {
		t.Fatalf("Expected: %d, got: %d", 2, replayed.Users.Len())
	}
}

func TestCoreStopClosesDB(t *testing.T) {
	c := testSetupCore(t, config.Config{
		DB: &config.DB{Options: config.SQLiteOptions{Path: ":memory:"}},
	})
	if err := c.DB.PingContext(context.Background()); err != nil {
		t.Fatal("Error:", err)
	}
	c.Stop()
	if err := c.DB.PingContext(context.Background()); err == nil {
		t.Fatal("Expected error for closed database")
	}
}

func TestCoreWrapTx(t *testing.T) {
	c := testSetupCore(t, config.Config{
		DB: &config.DB{Options: config.SQLiteOptions{Path: ":memory:"}},
	})
	ctx := context.Background()
	errRollback := errors.New("rollback")
	if err := c.WrapTx(ctx, func(ctx context.Context) error {
		if db.GetTx(ctx) == nil {
			t.Fatal("Expected transaction")
		}
		if _, err := c.journal.Append(ctx, db.Event{Kind: "join_team", Payload: []byte("{}")}); err != nil {
			return err
		}
		return errRollback
	}); err != errRollback {
		t.Fatalf("Expected: %v, got: %v", errRollback, err)
	}
	if _, err := c.Commit(ctx, models.UnlockHintEvent, models.UnlockHintPayload{
		UserID: "u1", ChallengeID: "c1", HintID: "h1",
	}); err != nil {
		t.Fatal("Error:", err)
	}
	rows, err := c.journal.Load(ctx)
	if err != nil {
		t.Fatal("Error:", err)
	}
	defer func() { _ = rows.Close() }()
	var kinds []string
	for rows.Next() {
		kinds = append(kinds, rows.Row().Kind)
	}
	if err := rows.Err(); err != nil {
		t.Fatal("Error:", err)
	}
	if expected := []string{"unlock_hint"}; !reflect.DeepEqual(kinds, expected) {
		t.Fatalf("Expected: %v, got: %v", expected, kinds)
	}
}
