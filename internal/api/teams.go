package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/udovin/ctf/internal/models"
)

// registerTeamHandlers registers handlers for teams.
func (v *View) registerTeamHandlers(g *echo.Group) {
	g.GET("/v0/teams", v.observeTeams)
	g.POST("/v0/teams", v.createTeam)
	g.POST("/v0/teams/join", v.joinTeam)
	g.GET("/v0/teams/:team", v.observeTeam, v.extractTeam)
}

// Team represents team.
//
// Code is shown only to members of team.
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Code    string   `json:"code,omitempty"`
	Members []string `json:"members"`
	Score   int      `json:"score"`
	Solved  []string `json:"solved_challenges"`
}

// Teams represents teams response.
type Teams struct {
	Teams []Team `json:"teams"`
}

func makeTeam(team models.Team, showCode bool) Team {
	resp := Team{
		ID:      team.ID,
		Name:    team.Name,
		Members: team.Members,
		Score:   team.Score,
		Solved:  team.Solved,
	}
	if resp.Members == nil {
		resp.Members = []string{}
	}
	if resp.Solved == nil {
		resp.Solved = []string{}
	}
	if showCode {
		resp.Code = team.Code
	}
	return resp
}

func (v *View) observeTeams(c echo.Context) error {
	resp := Teams{Teams: []Team{}}
	for _, team := range v.core.Teams.Scoreboard() {
		resp.Teams = append(resp.Teams, makeTeam(team, false))
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeTeam(c echo.Context) error {
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	userID := c.QueryParam("user")
	return c.JSON(http.StatusOK, makeTeam(team, userID != "" && team.HasMember(userID)))
}

type createTeamForm struct {
	Name   string `json:"name" form:"name"`
	UserID string `json:"user_id" form:"user_id"`
}

func (v *View) createTeam(c echo.Context) error {
	var form createTeamForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return errInvalidForm
	}
	team, err := v.teams.Create(getContext(c), form.Name, form.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, makeTeam(team, true))
}

type joinTeamForm struct {
	Code   string `json:"code" form:"code"`
	UserID string `json:"user_id" form:"user_id"`
}

func (v *View) joinTeam(c echo.Context) error {
	var form joinTeamForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return errInvalidForm
	}
	team, err := v.teams.Join(getContext(c), form.Code, form.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeTeam(team, true))
}

func (v *View) extractTeam(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		team, err := v.teams.Get(c.Param("team"))
		if err != nil {
			return err
		}
		c.Set(teamKey, team)
		return next(c)
	}
}
