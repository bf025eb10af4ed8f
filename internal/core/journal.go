package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/udovin/ctf/internal/db"
	"github.com/udovin/ctf/internal/models"
	"github.com/udovin/ctf/internal/pkg/logs"
)

// Commit appends event to journal and applies it to stores.
//
// Events are committed one by one, so journal order always matches
// order in which events were applied. When journal append fails,
// stores remain untouched.
func (c *Core) Commit(
	ctx context.Context, kind models.EventKind, payload any,
) (models.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return models.Event{}, err
	}
	event := models.Event{
		Kind:    kind,
		Time:    models.GetNow(ctx),
		Payload: payload,
	}
	c.commitMutex.Lock()
	defer c.commitMutex.Unlock()
	if err := ctx.Err(); err != nil {
		return models.Event{}, err
	}
	id, err := c.appendEvent(ctx, db.Event{
		Kind:    kind.String(),
		Time:    event.Time.UnixNano(),
		Payload: data,
	})
	if err != nil {
		return models.Event{}, fmt.Errorf("cannot append %v event: %w", kind, err)
	}
	event.ID = id
	if err := c.apply(event); err != nil {
		c.Logger().Error(
			"Cannot apply committed event",
			logs.Any("event_id", event.ID),
			logs.Any("kind", kind.String()),
			err,
		)
		return models.Event{}, err
	}
	return event, nil
}

func (c *Core) appendEvent(ctx context.Context, event db.Event) (int64, error) {
	if c.DB == nil {
		return c.journal.Append(ctx, event)
	}
	var id int64
	if err := c.WrapTx(ctx, func(ctx context.Context) (err error) {
		id, err = c.journal.Append(ctx, event)
		return err
	}); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Core) replay(ctx context.Context) error {
	rows, err := c.journal.Load(ctx)
	if err != nil {
		return fmt.Errorf("cannot load journal: %w", err)
	}
	defer func() { _ = rows.Close() }()
	count := 0
	for rows.Next() {
		row := rows.Row()
		kind, err := models.ParseEventKind(row.Kind)
		if err != nil {
			return fmt.Errorf("event %d: %w", row.ID, err)
		}
		payload, err := models.DecodePayload(kind, row.Payload)
		if err != nil {
			return fmt.Errorf("event %d: %w", row.ID, err)
		}
		event := models.Event{
			ID:      row.ID,
			Kind:    kind,
			Time:    time.Unix(0, row.Time),
			Payload: payload,
		}
		if err := c.apply(event); err != nil {
			c.Logger().Warn(
				"Skipping event",
				logs.Any("event_id", event.ID),
				logs.Any("kind", kind.String()),
				err,
			)
			continue
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("cannot read journal: %w", err)
	}
	c.Logger().Info("Journal replayed", logs.Any("count", count))
	return nil
}

func (c *Core) apply(event models.Event) error {
	switch payload := event.Payload.(type) {
	case models.RegisterUserPayload:
		return c.Users.Create(models.User{
			ID:        payload.UserID,
			Username:  payload.Username,
			Email:     payload.Email,
			CreatedAt: event.Time,
		})
	case models.CreateTeamPayload:
		if err := c.Teams.Create(models.Team{
			ID:        payload.TeamID,
			Name:      payload.Name,
			Code:      payload.Code,
			Members:   []string{payload.UserID},
			CreatedAt: event.Time,
		}); err != nil {
			return err
		}
		return c.Users.SetTeam(payload.UserID, payload.TeamID, event.Time)
	case models.JoinTeamPayload:
		if err := c.Teams.AddMember(payload.TeamID, payload.UserID, 0); err != nil {
			return err
		}
		return c.Users.SetTeam(payload.UserID, payload.TeamID, event.Time)
	case models.UnlockHintPayload:
		if _, err := c.Users.Ensure(payload.UserID, event.Time); err != nil {
			return err
		}
		c.HintUnlocks.Unlock(payload.UserID, payload.ChallengeID, payload.HintID)
		return nil
	case models.SolveChallengePayload:
		return c.applySolve(payload, event.Time)
	default:
		return fmt.Errorf("unsupported event payload: %T", event.Payload)
	}
}

// applySolve records solve before any score change.
func (c *Core) applySolve(payload models.SolveChallengePayload, now time.Time) error {
	solved, err := c.Challenges.MarkSolved(payload.ChallengeID, payload.UserID)
	if err != nil {
		return err
	}
	if !solved {
		return nil
	}
	c.Users.AddScore(payload.UserID, payload.Points, now)
	c.Users.AddSolved(payload.UserID, payload.ChallengeID, now)
	if payload.TeamID == "" {
		return nil
	}
	if _, err := c.Teams.AddScore(payload.TeamID, payload.Points, now); err != nil {
		return err
	}
	return c.Teams.AddSolved(payload.TeamID, payload.ChallengeID)
}
