package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/udovin/ctf/internal/models"
)

// registerChallengeHandlers registers handlers for challenges.
func (v *View) registerChallengeHandlers(g *echo.Group) {
	g.GET("/v0/challenges", v.observeChallenges)
	g.GET("/v0/challenges/:challenge", v.observeChallenge, v.extractChallenge)
	g.POST("/v0/challenges/:challenge/submit", v.submitFlag, v.extractChallenge)
	g.POST(
		"/v0/challenges/:challenge/hints/:hint/unlock", v.unlockHint,
		v.extractChallenge,
	)
}

// Hint represents hint of challenge.
//
// Text is present only for unlocked hints.
type Hint struct {
	ID       string `json:"id"`
	Cost     int    `json:"cost"`
	Text     string `json:"text,omitempty"`
	Unlocked bool   `json:"unlocked,omitempty"`
}

// Challenge represents challenge without flag.
type Challenge struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Category    models.Category   `json:"category"`
	Difficulty  models.Difficulty `json:"difficulty"`
	Points      int               `json:"points"`
	Hints       []Hint            `json:"hints,omitempty"`
	Solves      int               `json:"solves"`
	Solved      bool              `json:"solved,omitempty"`
	// AvailablePoints contains points that user gets for solve.
	AvailablePoints *int `json:"available_points,omitempty"`
}

// Challenges represents challenges response.
type Challenges struct {
	Challenges []Challenge `json:"challenges"`
}

type challengeFilter struct {
	Category   string `query:"category"`
	Difficulty string `query:"difficulty"`
	User       string `query:"user"`
	category   models.Category
	difficulty models.Difficulty
}

func (f *challengeFilter) Parse(c echo.Context) error {
	if err := c.Bind(f); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Kind:    "invalid",
			Message: "Invalid filter.",
		}
	}
	errors := errorFields{}
	if f.Category != "" {
		if err := f.category.UnmarshalText([]byte(f.Category)); err != nil {
			errors["category"] = errorField{Message: fmt.Sprintf("Unsupported category %q.", f.Category)}
		}
	}
	if f.Difficulty != "" {
		if err := f.difficulty.UnmarshalText([]byte(f.Difficulty)); err != nil {
			errors["difficulty"] = errorField{Message: fmt.Sprintf("Unsupported difficulty %q.", f.Difficulty)}
		}
	}
	if len(errors) > 0 {
		return errorResponse{
			Code:          http.StatusBadRequest,
			Kind:          "invalid",
			Message:       "Invalid filter.",
			InvalidFields: errors,
		}
	}
	return nil
}

func (f *challengeFilter) Filter(challenge models.Challenge) bool {
	if f.category != 0 && challenge.Category != f.category {
		return false
	}
	if f.difficulty != 0 && challenge.Difficulty != f.difficulty {
		return false
	}
	return true
}

func (v *View) observeChallenges(c echo.Context) error {
	var filter challengeFilter
	if err := filter.Parse(c); err != nil {
		return err
	}
	resp := Challenges{Challenges: []Challenge{}}
	for _, challenge := range v.core.Challenges.All() {
		if filter.Filter(challenge) {
			resp.Challenges = append(resp.Challenges, v.makeChallenge(challenge, filter.User, false))
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeChallenge(c echo.Context) error {
	challenge, ok := c.Get(challengeKey).(models.Challenge)
	if !ok {
		return fmt.Errorf("challenge not extracted")
	}
	return c.JSON(http.StatusOK, v.makeChallenge(challenge, c.QueryParam("user"), true))
}

func (v *View) makeChallenge(challenge models.Challenge, userID string, full bool) Challenge {
	resp := Challenge{
		ID:         challenge.ID,
		Slug:       challenge.Slug,
		Title:      challenge.Title,
		Category:   challenge.Category,
		Difficulty: challenge.Difficulty,
		Points:     challenge.Points,
		Solves:     len(challenge.SolvedBy),
	}
	if userID != "" {
		resp.Solved = challenge.IsSolvedBy(userID)
	}
	if !full {
		return resp
	}
	resp.Description = challenge.Description
	for _, hint := range challenge.Hints {
		item := Hint{ID: hint.ID, Cost: hint.Cost}
		if v.hints.IsUnlocked(challenge.ID, hint.ID, userID) {
			item.Text = hint.Text
			item.Unlocked = true
		}
		resp.Hints = append(resp.Hints, item)
	}
	if userID != "" && !resp.Solved {
		points := challenge.Points - v.hints.Penalty(challenge, userID)
		if points < 0 {
			points = 0
		}
		resp.AvailablePoints = &points
	}
	return resp
}

type submitFlagForm struct {
	UserID string `json:"user_id" form:"user_id"`
	Flag   string `json:"flag" form:"flag"`
}

// SubmissionResult represents result of flag submission.
type SubmissionResult struct {
	Correct       bool `json:"correct"`
	AlreadySolved bool `json:"already_solved"`
	PointsAwarded int  `json:"points_awarded"`
}

func (v *View) submitFlag(c echo.Context) error {
	challenge, ok := c.Get(challengeKey).(models.Challenge)
	if !ok {
		return fmt.Errorf("challenge not extracted")
	}
	var form submitFlagForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return errInvalidForm
	}
	result, err := v.submissions.Submit(getContext(c), challenge.ID, form.Flag, form.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SubmissionResult{
		Correct:       result.Correct,
		AlreadySolved: result.AlreadySolved,
		PointsAwarded: result.PointsAwarded,
	})
}

type unlockHintForm struct {
	UserID string `json:"user_id" form:"user_id"`
}

func (v *View) unlockHint(c echo.Context) error {
	challenge, ok := c.Get(challengeKey).(models.Challenge)
	if !ok {
		return fmt.Errorf("challenge not extracted")
	}
	var form unlockHintForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return errInvalidForm
	}
	hint, err := v.hints.Unlock(getContext(c), challenge.ID, c.Param("hint"), form.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Hint{
		ID:       hint.ID,
		Cost:     hint.Cost,
		Text:     hint.Text,
		Unlocked: true,
	})
}

// extractChallenge finds challenge by ID or slug.
func (v *View) extractChallenge(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("challenge")
		challenge, err := v.core.Challenges.Get(id)
		if err != nil {
			challenge, err = v.core.Challenges.GetBySlug(id)
			if err != nil {
				return err
			}
		}
		c.Set(challengeKey, challenge)
		return next(c)
	}
}
