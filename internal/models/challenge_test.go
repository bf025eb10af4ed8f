package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func testChallenge(id, title string, points int, flag string, hints ...Hint) Challenge {
	challenge := Challenge{
		ID:         id,
		Title:      title,
		Category:   CryptoCategory,
		Difficulty: EasyDifficulty,
		Points:     points,
		Hints:      hints,
	}
	challenge.SetFlag(flag)
	return challenge
}

func TestChallengeCheckFlag(t *testing.T) {
	challenge := testChallenge("c1", "Flag", 100, "CTF{flag}")
	if !challenge.CheckFlag("CTF{flag}") {
		t.Fatal("Expected correct flag")
	}
	for _, flag := range []string{"ctf{flag}", "CTF{flag} ", " CTF{flag}", "", "CTF{FLAG}"} {
		if challenge.CheckFlag(flag) {
			t.Fatalf("Expected wrong flag: %q", flag)
		}
	}
	if (Challenge{}).CheckFlag("") {
		t.Fatal("Challenge without flag should not accept anything")
	}
}

func TestChallengeFlagNotSerialized(t *testing.T) {
	challenge := testChallenge("c1", "Flag", 100, "CTF{secret_value}")
	data, err := json.Marshal(challenge)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if strings.Contains(string(data), "secret_value") {
		t.Fatalf("Flag leaked: %s", data)
	}
	clone := challenge.Clone()
	if !clone.CheckFlag("CTF{secret_value}") {
		t.Fatal("Clone should keep flag")
	}
}

func TestChallengeValidate(t *testing.T) {
	valid := testChallenge("c1", "Title", 100, "CTF{x}", Hint{ID: "h1", Cost: 10})
	if err := valid.Validate(); err != nil {
		t.Fatal("Error:", err)
	}
	tests := []struct {
		Field  string
		Modify func(*Challenge)
	}{
		{"id", func(c *Challenge) { c.ID = " " }},
		{"title", func(c *Challenge) { c.Title = "" }},
		{"category", func(c *Challenge) { c.Category = 0 }},
		{"difficulty", func(c *Challenge) { c.Difficulty = 7 }},
		{"points", func(c *Challenge) { c.Points = 0 }},
		{"flag", func(c *Challenge) { c.flagDigest = nil }},
		{"hints", func(c *Challenge) { c.Hints = append(c.Hints, Hint{ID: "h1"}) }},
		{"hints", func(c *Challenge) { c.Hints = []Hint{{ID: "h2", Cost: -1}} }},
		{"hints", func(c *Challenge) { c.Hints = []Hint{{ID: ""}} }},
	}
	for _, test := range tests {
		challenge := valid.Clone()
		test.Modify(&challenge)
		err := challenge.Validate()
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected validation error for %q, got: %v", test.Field, err)
		}
		if validationErr.Field != test.Field {
			t.Fatalf("Expected: %q, got: %q", test.Field, validationErr.Field)
		}
	}
}

func TestCategoryText(t *testing.T) {
	for _, category := range []Category{
		WebCategory, CryptoCategory, ForensicsCategory, ReverseCategory, StegoCategory,
	} {
		data, err := category.MarshalText()
		if err != nil {
			t.Fatal("Error:", err)
		}
		var parsed Category
		if err := parsed.UnmarshalText(data); err != nil {
			t.Fatal("Error:", err)
		}
		if parsed != category {
			t.Fatalf("Expected: %v, got: %v", category, parsed)
		}
	}
	var category Category
	if err := category.UnmarshalText([]byte("misc")); err == nil {
		t.Fatal("Expected error")
	}
	var difficulty Difficulty
	if err := difficulty.UnmarshalText([]byte("insane")); err == nil {
		t.Fatal("Expected error")
	}
	if s := Difficulty(9).String(); s != "Difficulty(9)" {
		t.Fatalf("Unexpected string: %q", s)
	}
}

func TestChallengeStore(t *testing.T) {
	store := NewChallengeStore()
	if err := store.Create(testChallenge("c2", "Caesar Secret", 100, "CTF{a}")); err != nil {
		t.Fatal("Error:", err)
	}
	if err := store.Create(testChallenge("c1", "Caesar Secret", 100, "CTF{b}")); err != nil {
		t.Fatal("Error:", err)
	}
	if err := store.Create(testChallenge("c1", "Other", 100, "CTF{c}")); err == nil {
		t.Fatal("Expected duplicate id error")
	}
	challenges := store.All()
	if len(challenges) != 2 || challenges[0].ID != "c2" || challenges[1].ID != "c1" {
		t.Fatalf("Unexpected order: %v", challenges)
	}
	if challenges[0].Slug != "caesar-secret" || challenges[1].Slug != "caesar-secret-2" {
		t.Fatalf("Unexpected slugs: %q, %q", challenges[0].Slug, challenges[1].Slug)
	}
	challenge, err := store.GetBySlug("caesar-secret-2")
	if err != nil {
		t.Fatal("Error:", err)
	}
	if challenge.ID != "c1" {
		t.Fatalf("Expected: %q, got: %q", "c1", challenge.ID)
	}
	var notFoundErr *NotFoundError
	if _, err := store.Get("c404"); !errors.As(err, &notFoundErr) {
		t.Fatalf("Expected not found, got: %v", err)
	}
	if _, err := store.MarkSolved("c404", "u1"); !errors.As(err, &notFoundErr) {
		t.Fatalf("Expected not found, got: %v", err)
	}
	if ok, err := store.MarkSolved("c1", "u1"); err != nil || !ok {
		t.Fatalf("Expected newly solved, got: %v, %v", ok, err)
	}
	if ok, err := store.MarkSolved("c1", "u1"); err != nil || ok {
		t.Fatalf("Expected already solved, got: %v, %v", ok, err)
	}
	if ok, err := store.MarkSolved("c1", "u2"); err != nil || !ok {
		t.Fatalf("Expected newly solved, got: %v, %v", ok, err)
	}
	challenge, err = store.Get("c1")
	if err != nil {
		t.Fatal("Error:", err)
	}
	if expected := []string{"u1", "u2"}; !reflect.DeepEqual(challenge.SolvedBy, expected) {
		t.Fatalf("Expected: %v, got: %v", expected, challenge.SolvedBy)
	}
	challenge.SolvedBy[0] = "changed"
	if solved, _ := store.IsSolved("c1", "u1"); !solved {
		t.Fatal("Store should not share state with snapshots")
	}
}

func TestChallengeStoreConcurrentMarkSolved(t *testing.T) {
	store := NewChallengeStore()
	if err := store.Create(testChallenge("c1", "Flag", 100, "CTF{x}")); err != nil {
		t.Fatal("Error:", err)
	}
	var wg sync.WaitGroup
	var mutex sync.Mutex
	newly := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkSolved("c1", "u1")
			if err != nil {
				t.Error("Error:", err)
				return
			}
			if ok {
				mutex.Lock()
				newly++
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()
	if newly != 1 {
		t.Fatalf("Expected exactly one solve, got: %d", newly)
	}
}
