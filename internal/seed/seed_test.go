package seed

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/udovin/ctf/internal/models"
)

func TestChallenges(t *testing.T) {
	store := models.NewChallengeStore()
	for _, challenge := range Challenges() {
		if err := store.Create(challenge); err != nil {
			t.Fatal("Error:", err)
		}
	}
	if store.Len() != 8 {
		t.Fatalf("Expected: %d, got: %d", 8, store.Len())
	}
	c2, err := store.Get("c2")
	if err != nil {
		t.Fatal("Error:", err)
	}
	if c2.Points != 100 || len(c2.Hints) != 1 || c2.Hints[0].Cost != 10 {
		t.Fatalf("Unexpected challenge: %+v", c2)
	}
	if !c2.CheckFlag("CTF{julius_caesar_was_here}") {
		t.Fatal("Expected correct flag")
	}
	if c2.CheckFlag("PGS{whyvhf_pnrfne_jnf_urer}") {
		t.Fatal("Expected wrong flag")
	}
	c3, _ := store.Get("c3")
	if c3.Category != models.StegoCategory || c3.Points != 150 || len(c3.Hints) != 2 {
		t.Fatalf("Unexpected challenge: %+v", c3)
	}
}

func TestDemoTeams(t *testing.T) {
	now := time.Unix(1000, 0)
	store := models.NewTeamStore()
	for _, team := range DemoTeams(now) {
		if err := store.Create(team); err != nil {
			t.Fatal("Error:", err)
		}
	}
	var ids []string
	for _, team := range store.Scoreboard() {
		ids = append(ids, team.ID)
	}
	if s := strings.Join(ids, ","); s != "t5,t1,t4,t2,t3" {
		t.Fatalf("Unexpected scoreboard: %s", s)
	}
	users := DemoUsers(now)
	if len(users) != 10 {
		t.Fatalf("Expected: %d, got: %d", 10, len(users))
	}
	for _, user := range users {
		if err := models.ValidateUsername(user.Username); err != nil {
			t.Fatal("Error:", err)
		}
		if err := models.ValidateEmail(user.Email); err != nil {
			t.Fatal("Error:", err)
		}
	}
}

func TestReadChallenges(t *testing.T) {
	challenges, err := ReadChallenges(strings.NewReader(`[
		{"id": "x1", "title": "First", "description": "", "category": "web",
		 "difficulty": "easy", "points": 50, "flag": "CTF{one}",
		 "hints": [{"id": "a", "text": "look", "cost": 5}]},
		{"id": "x2", "title": "Second", "category": "stego",
		 "difficulty": "hard", "points": 500, "flag": "CTF{two}", "hints": []}
	]`))
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(challenges) != 2 {
		t.Fatalf("Expected: %d, got: %d", 2, len(challenges))
	}
	if challenges[0].Slug != "first" || !challenges[0].CheckFlag("CTF{one}") {
		t.Fatalf("Unexpected challenge: %+v", challenges[0])
	}
	if challenges[1].Difficulty != models.HardDifficulty {
		t.Fatalf("Unexpected difficulty: %v", challenges[1].Difficulty)
	}
}

func TestReadChallengesInvalid(t *testing.T) {
	inputs := []string{
		`{`,
		`[{"id": "x1", "title": "T", "category": "misc", "difficulty": "easy", "points": 1, "flag": "f"}]`,
		`[{"id": "x1", "title": "T", "category": "web", "difficulty": "easy", "points": 1}]`,
		`[{"id": "x1", "title": "T", "category": "web", "difficulty": "easy", "points": 1, "flag": "f", "extra": 1}]`,
		`[{"id": "x1", "title": "T", "category": "web", "difficulty": "easy", "points": 1, "flag": "f"},` +
			`{"id": "x1", "title": "U", "category": "web", "difficulty": "easy", "points": 1, "flag": "g"}]`,
	}
	for _, input := range inputs {
		if _, err := ReadChallenges(strings.NewReader(input)); err == nil {
			t.Fatalf("Expected error for %s", input)
		}
	}
	_, err := ReadChallenges(strings.NewReader(
		`[{"id": "x1", "title": "T", "category": "web", "difficulty": "easy", "points": 0, "flag": "f"}]`,
	))
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "points" {
		t.Fatalf("Expected validation error, got: %v", err)
	}
}

func TestLoadChallengesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "challenges.json")
	if err := os.WriteFile(path, []byte(
		`[{"id": "x1", "title": "T", "category": "web", "difficulty": "easy", "points": 1, "flag": "f"}]`,
	), 0644); err != nil {
		t.Fatal("Error:", err)
	}
	challenges, err := LoadChallengesFile(path)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(challenges) != 1 {
		t.Fatalf("Expected: %d, got: %d", 1, len(challenges))
	}
	if _, err := LoadChallengesFile(path + ".missing"); err == nil {
		t.Fatal("Expected error")
	}
}
