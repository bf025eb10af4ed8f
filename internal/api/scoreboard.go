package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (v *View) registerScoreboardHandlers(g *echo.Group) {
	g.GET("/v0/scoreboard", v.observeScoreboard)
}

type ScoreboardRow struct {
	Place       int    `json:"place"`
	TeamID      string `json:"team_id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	SolvedCount int    `json:"solved_count"`
	Members     int    `json:"members"`
}

type Scoreboard struct {
	Rows []ScoreboardRow `json:"rows"`
	Time int64           `json:"time"`
}

func (v *View) observeScoreboard(c echo.Context) error {
	scoreboard, err := v.scoreboard.Build(getContext(c))
	if err != nil {
		return err
	}
	resp := Scoreboard{
		Rows: []ScoreboardRow{},
		Time: scoreboard.Time.Unix(),
	}
	for _, row := range scoreboard.Rows {
		resp.Rows = append(resp.Rows, ScoreboardRow{
			Place:       row.Place,
			TeamID:      row.Team.ID,
			Name:        row.Team.Name,
			Score:       row.Team.Score,
			SolvedCount: len(row.Team.Solved),
			Members:     len(row.Team.Members),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
