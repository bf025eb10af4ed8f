package models

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestValidateUser(t *testing.T) {
	if err := ValidateUsername("neo_42"); err != nil {
		t.Fatal("Error:", err)
	}
	for _, username := range []string{"", "white space", "юзер", "0123456789012345678901234567890123"} {
		if err := ValidateUsername(username); err == nil {
			t.Fatalf("Expected error for %q", username)
		}
	}
	if err := ValidateEmail("neo@example.com"); err != nil {
		t.Fatal("Error:", err)
	}
	for _, email := range []string{"", "neo", "Neo <neo@example.com>"} {
		if err := ValidateEmail(email); err == nil {
			t.Fatalf("Expected error for %q", email)
		}
	}
}

func TestUserStore(t *testing.T) {
	store := NewUserStore()
	now := time.Unix(100, 0)
	if err := store.Create(User{ID: "u1", Username: "Neo", Email: "neo@example.com", CreatedAt: now}); err != nil {
		t.Fatal("Error:", err)
	}
	var duplicateErr *DuplicateNameError
	if err := store.Create(User{ID: "u2", Username: "neo"}); !errors.As(err, &duplicateErr) {
		t.Fatalf("Expected duplicate name, got: %v", err)
	}
	if _, err := store.Get("u2"); err == nil {
		t.Fatal("Expected not found")
	}
	user, err := store.Ensure("u2", now)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if user.Username != "u2" || !user.CreatedAt.Equal(now) {
		t.Fatalf("Unexpected user: %+v", user)
	}
	if !store.HasUsername("U2") {
		t.Fatal("Expected anonymous username to be taken")
	}
	if err := store.Create(User{ID: "u4", Username: "U2"}); !errors.As(err, &duplicateErr) {
		t.Fatalf("Expected duplicate name, got: %v", err)
	}
	if _, err := store.Ensure("", now); err == nil {
		t.Fatal("Expected validation error")
	}
	if ids := []string{store.All()[0].ID, store.All()[1].ID}; !reflect.DeepEqual(ids, []string{"u1", "u2"}) {
		t.Fatalf("Unexpected order: %v", ids)
	}
	if err := store.SetTeam("u1", "t1", now); err != nil {
		t.Fatal("Error:", err)
	}
	var alreadyErr *AlreadyOnTeamError
	if err := store.SetTeam("u1", "t2", now); !errors.As(err, &alreadyErr) {
		t.Fatalf("Expected already on team, got: %v", err)
	}
	if alreadyErr.TeamID != "t1" {
		t.Fatalf("Expected: %q, got: %q", "t1", alreadyErr.TeamID)
	}
	if user := store.AddScore("u1", 90, now); user.Score != 90 {
		t.Fatalf("Expected: %d, got: %d", 90, user.Score)
	}
	if user := store.AddScore("u1", -200, now); user.Score != 0 {
		t.Fatalf("Expected: %d, got: %d", 0, user.Score)
	}
	store.AddSolved("u1", "c2", now)
	store.AddSolved("u1", "c2", now)
	store.AddSolved("u3", "c1", now)
	user, _ = store.Get("u1")
	if expected := []string{"c2"}; !reflect.DeepEqual(user.Solved, expected) {
		t.Fatalf("Expected: %v, got: %v", expected, user.Solved)
	}
	if user, _ := store.Ensure("NEO", now); user.Username != "NEO-2" {
		t.Fatalf("Expected: %q, got: %q", "NEO-2", user.Username)
	}
	if store.Len() != 4 {
		t.Fatalf("Expected: %d, got: %d", 4, store.Len())
	}
}

func TestHintUnlockStore(t *testing.T) {
	store := NewHintUnlockStore()
	challenge := testChallenge("c3", "Plain Sight", 150, "CTF{x}",
		Hint{ID: "h3", Cost: 15}, Hint{ID: "h4", Cost: 25})
	if penalty := store.HintPenalty("u1", challenge); penalty != 0 {
		t.Fatalf("Expected: %d, got: %d", 0, penalty)
	}
	if !store.Unlock("u1", "c3", "h4") {
		t.Fatal("Expected new unlock")
	}
	if store.Unlock("u1", "c3", "h4") {
		t.Fatal("Expected repeated unlock")
	}
	store.Unlock("u1", "c3", "h3")
	store.Unlock("u2", "c3", "h3")
	store.Unlock("u1", "c1", "h1")
	if penalty := store.HintPenalty("u1", challenge); penalty != 40 {
		t.Fatalf("Expected: %d, got: %d", 40, penalty)
	}
	if penalty := store.HintPenalty("u2", challenge); penalty != 15 {
		t.Fatalf("Expected: %d, got: %d", 15, penalty)
	}
	if ids := store.FindByUserChallenge("u1", "c3"); !reflect.DeepEqual(ids, []string{"h3", "h4"}) {
		t.Fatalf("Unexpected hints: %v", ids)
	}
	if !store.IsUnlocked("u2", "c3", "h3") || store.IsUnlocked("u2", "c3", "h4") {
		t.Fatal("Unexpected unlock state")
	}
}

func TestEventKind(t *testing.T) {
	for kind := RegisterUserEvent; kind <= SolveChallengeEvent; kind++ {
		parsed, err := ParseEventKind(kind.String())
		if err != nil {
			t.Fatal("Error:", err)
		}
		if parsed != kind {
			t.Fatalf("Expected: %v, got: %v", kind, parsed)
		}
	}
	if _, err := ParseEventKind("unknown"); err == nil {
		t.Fatal("Expected error")
	}
	payload, err := DecodePayload(SolveChallengeEvent, []byte(`{"user_id":"u1","challenge_id":"c2","points":90}`))
	if err != nil {
		t.Fatal("Error:", err)
	}
	expected := SolveChallengePayload{UserID: "u1", ChallengeID: "c2", Points: 90}
	if payload != any(expected) {
		t.Fatalf("Expected: %+v, got: %+v", expected, payload)
	}
	if _, err := DecodePayload(EventKind(42), nil); err == nil {
		t.Fatal("Expected error")
	}
	if _, err := DecodePayload(JoinTeamEvent, []byte("{")); err == nil {
		t.Fatal("Expected error")
	}
}
