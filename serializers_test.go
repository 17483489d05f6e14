package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"kili/models"
)

func TestAccountViewBalanceAndOrder(t *testing.T) {
	now := time.Now()
	// already ordered newest first, the way loadAccountView queries them
	moves := []models.Movement{
		{ID: 2, AccountID: 1, Amount: -30, Description: "withdrawal", Created: now},
		{ID: 1, AccountID: 1, Amount: 100, Description: "deposit", Created: now.Add(-time.Minute)},
	}
	av := accountView(1, moves)
	if av.Balance != 70 {
		t.Fatalf("balance = %d, want 70", av.Balance)
	}
	if len(av.Moves) != 2 {
		t.Fatalf("moves = %d, want 2", len(av.Moves))
	}
	if av.Moves[0].Description != "withdrawal" || av.Moves[1].Description != "deposit" {
		t.Fatalf("moves out of order: %+v", av.Moves)
	}
}

func TestAccountViewEmptyAccount(t *testing.T) {
	av := accountView(7, nil)
	if av.Balance != 0 {
		t.Fatalf("empty account balance = %d, want 0", av.Balance)
	}
	b, err := json.Marshal(av)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	// balance must be present and zero, moves an empty array, never null
	if !strings.Contains(s, `"balance":0`) {
		t.Fatalf("serialized view missing zero balance: %s", s)
	}
	if !strings.Contains(s, `"moves":[]`) {
		t.Fatalf("serialized view has null moves: %s", s)
	}
}

func TestMovementView(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := models.Movement{ID: 9, AccountID: 3, Amount: -150, Description: "withdrawal", Created: created}
	v := movementView(m)
	if v.ID != 9 || v.Account != 3 || v.Amount != -150 || v.Description != "withdrawal" || !v.Created.Equal(created) {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestClientViewHidesCredentials(t *testing.T) {
	c := models.Client{
		Email:          "a@b.com",
		FirstName:      "A",
		LastName:       "B",
		Phone:          "+54 351 555",
		HashedPassword: []byte("$2a$10$secret"),
		IsAdmin:        true,
	}
	b, err := json.Marshal(clientView(c))
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if strings.Contains(s, "secret") || strings.Contains(s, "password") || strings.Contains(s, "admin") {
		t.Fatalf("client view leaks internals: %s", s)
	}
	for _, want := range []string{`"email":"a@b.com"`, `"first_name":"A"`, `"last_name":"B"`, `"phone":"+54 351 555"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("client view missing %s: %s", want, s)
		}
	}
}
