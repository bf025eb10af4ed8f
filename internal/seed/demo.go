package seed

import (
	"fmt"
	"time"

	"github.com/udovin/ctf/internal/models"
)

var demoTeams = []models.Team{
	{
		ID:      "t1",
		Name:    "Cyber Ninjas",
		Members: []string{"u1", "u2"},
		Score:   650,
		Solved:  []string{"c1", "c2", "c3", "c6"},
	},
	{
		ID:      "t2",
		Name:    "Binary Bandits",
		Members: []string{"u3", "u4"},
		Score:   450,
		Solved:  []string{"c1", "c2", "c4"},
	},
	{
		ID:      "t3",
		Name:    "Data Pirates",
		Members: []string{"u5"},
		Score:   300,
		Solved:  []string{"c3", "c4"},
	},
	{
		ID:      "t4",
		Name:    "Code Breakers",
		Members: []string{"u6", "u7", "u8"},
		Score:   550,
		Solved:  []string{"c1", "c5", "c7"},
	},
	{
		ID:      "t5",
		Name:    "Hacktivists",
		Members: []string{"u9", "u10"},
		Score:   700,
		Solved:  []string{"c2", "c3", "c5", "c7"},
	},
}

// DemoTeams returns demonstration teams.
//
// Every team gets code DEMO01..DEMO05 and is created at specified time.
func DemoTeams(now time.Time) []models.Team {
	teams := make([]models.Team, 0, len(demoTeams))
	for i, team := range demoTeams {
		team = team.Clone()
		team.Code = fmt.Sprintf("DEMO%02d", i+1)
		team.CreatedAt = now
		team.ScoreTime = now
		teams = append(teams, team)
	}
	return teams
}

// DemoUsers returns members of demonstration teams.
func DemoUsers(now time.Time) []models.User {
	var users []models.User
	for _, team := range demoTeams {
		for _, id := range team.Members {
			users = append(users, models.User{
				ID:        id,
				Username:  "player_" + id,
				Email:     id + "@demo.local",
				TeamID:    team.ID,
				CreatedAt: now,
			})
		}
	}
	return users
}
