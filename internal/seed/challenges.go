// Package seed contains built-in competition content.
package seed

import (
	"github.com/udovin/ctf/internal/models"
)

type challengeDef struct {
	ID          string
	Title       string
	Description string
	Category    models.Category
	Difficulty  models.Difficulty
	Points      int
	Flag        string
	Hints       []models.Hint
}

var builtinChallenges = []challengeDef{
	{
		ID:          "c1",
		Title:       "Hidden Treasure",
		Description: "There's something valuable hidden in the robots.txt file. Can you find it?",
		Category:    models.WebCategory,
		Difficulty:  models.EasyDifficulty,
		Points:      100,
		Flag:        "CTF{r0b0ts_4r3_n0t_s3cur3}",
		Hints: []models.Hint{
			{ID: "h1", Text: "Check the robots.txt file for disallowed directories.", Cost: 10},
		},
	},
	{
		ID:          "c2",
		Title:       "Caesar's Secret",
		Description: "Julius Caesar has sent a secret message. Can you decipher it?\n\nPGS{whyvhf_pnrfne_jnf_urer}",
		Category:    models.CryptoCategory,
		Difficulty:  models.EasyDifficulty,
		Points:      100,
		Flag:        "CTF{julius_caesar_was_here}",
		Hints: []models.Hint{
			{ID: "h2", Text: "Try shifting each letter by a certain number.", Cost: 10},
		},
	},
	{
		ID:          "c3",
		Title:       "Hidden in Plain Sight",
		Description: "This image contains a hidden message. Can you extract it?",
		Category:    models.StegoCategory,
		Difficulty:  models.EasyDifficulty,
		Points:      150,
		Flag:        "CTF{h1dd3n_1n_pl41n_s1ght}",
		Hints: []models.Hint{
			{ID: "h3", Text: "Look at the least significant bits of each pixel.", Cost: 15},
			{ID: "h4", Text: "Try using steghide with an empty passphrase.", Cost: 25},
		},
	},
	{
		ID:          "c4",
		Title:       "Metadata Explorer",
		Description: "This PDF file contains some unusual metadata. Can you find the hidden information?",
		Category:    models.ForensicsCategory,
		Difficulty:  models.EasyDifficulty,
		Points:      150,
		Flag:        "CTF{m3t4d4t4_r3v34ls_s3cr3ts}",
		Hints: []models.Hint{
			{ID: "h5", Text: "Use exiftool to examine the metadata of the file.", Cost: 15},
		},
	},
	{
		ID:          "c5",
		Title:       "Simple Reverse",
		Description: "Can you figure out what this simple program does and find the password?",
		Category:    models.ReverseCategory,
		Difficulty:  models.MediumDifficulty,
		Points:      200,
		Flag:        "CTF{r3v3rs1ng_b4s1cs_m4st3r3d}",
		Hints: []models.Hint{
			{ID: "h6", Text: "Try to understand the logic flow of the program.", Cost: 20},
			{ID: "h7", Text: "Look for string comparisons in the code.", Cost: 30},
		},
	},
	{
		ID:          "c6",
		Title:       "Web Injection",
		Description: "This website has a simple login form. Can you bypass it?",
		Category:    models.WebCategory,
		Difficulty:  models.MediumDifficulty,
		Points:      250,
		Flag:        "CTF{sql_1nj3ct10n_succ3ss}",
		Hints: []models.Hint{
			{ID: "h8", Text: "Try SQL injection techniques.", Cost: 25},
		},
	},
	{
		ID:          "c7",
		Title:       "Base Layers",
		Description: "This text has been encoded multiple times. Can you decode it?\n\nVjBkSVVGVlZTMFpPVlZKTFZUQTlQUT09",
		Category:    models.CryptoCategory,
		Difficulty:  models.MediumDifficulty,
		Points:      200,
		Flag:        "CTF{mult1_l4y3r_3nc0d1ng}",
		Hints: []models.Hint{
			{ID: "h9", Text: "It involves multiple layers of base64 encoding.", Cost: 20},
		},
	},
	{
		ID:          "c8",
		Title:       "Network Packet Analysis",
		Description: "Analyze this packet capture file and find the suspicious activity.",
		Category:    models.ForensicsCategory,
		Difficulty:  models.HardDifficulty,
		Points:      300,
		Flag:        "CTF{p4ck3t_4n4lys1s_pr0}",
		Hints: []models.Hint{
			{ID: "h10", Text: "Look for unusual HTTP requests in the traffic.", Cost: 30},
			{ID: "h11", Text: "The flag is being exfiltrated in small chunks.", Cost: 40},
		},
	},
}

func (d challengeDef) challenge() models.Challenge {
	challenge := models.Challenge{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Difficulty:  d.Difficulty,
		Points:      d.Points,
		Hints:       append([]models.Hint(nil), d.Hints...),
	}
	challenge.SetFlag(d.Flag)
	return challenge
}

// Challenges returns built-in challenges in authoring order.
func Challenges() []models.Challenge {
	challenges := make([]models.Challenge, 0, len(builtinChallenges))
	for _, def := range builtinChallenges {
		challenges = append(challenges, def.challenge())
	}
	return challenges
}
