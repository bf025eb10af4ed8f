package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/udovin/ctf/internal/models"
)

type hintFile struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Cost int    `json:"cost"`
}

type challengeFile struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    models.Category   `json:"category"`
	Difficulty  models.Difficulty `json:"difficulty"`
	Points      int               `json:"points"`
	Flag        string            `json:"flag"`
	Hints       []hintFile        `json:"hints"`
}

// ReadChallenges reads challenges from JSON array.
//
// Every challenge is validated and identifiers should be unique.
func ReadChallenges(r io.Reader) ([]models.Challenge, error) {
	var files []challengeFile
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&files); err != nil {
		return nil, fmt.Errorf("cannot decode challenges: %w", err)
	}
	store := models.NewChallengeStore()
	for i, file := range files {
		challenge := models.Challenge{
			ID:          file.ID,
			Slug:        file.Slug,
			Title:       file.Title,
			Description: file.Description,
			Category:    file.Category,
			Difficulty:  file.Difficulty,
			Points:      file.Points,
		}
		if file.Flag != "" {
			challenge.SetFlag(file.Flag)
		}
		for _, hint := range file.Hints {
			challenge.Hints = append(challenge.Hints, models.Hint{
				ID:   hint.ID,
				Text: hint.Text,
				Cost: hint.Cost,
			})
		}
		if err := store.Create(challenge); err != nil {
			return nil, fmt.Errorf("challenge #%d: %w", i+1, err)
		}
	}
	return store.All(), nil
}

// LoadChallengesFile reads challenges from JSON file.
func LoadChallengesFile(path string) ([]models.Challenge, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return ReadChallenges(file)
}
