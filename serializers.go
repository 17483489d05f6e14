package main

import (
	"time"

	"kili/models"
)

// View structs shape API responses. They never expose the password hash or
// the privilege flags.

type ClientView struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type MoveView struct {
	ID          uint      `json:"id"`
	Created     time.Time `json:"created"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
}

// AccountView expands an account with its movements (newest first) and the
// computed balance. Balance is 0 for an empty account, never null.
type AccountView struct {
	ID      uint       `json:"id"`
	Moves   []MoveView `json:"moves"`
	Balance int64      `json:"balance"`
}

type MovementView struct {
	ID          uint      `json:"id"`
	Amount      int64     `json:"amount"`
	Account     uint      `json:"account"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

func clientView(c models.Client) ClientView {
	return ClientView{FirstName: c.FirstName, LastName: c.LastName, Phone: c.Phone, Email: c.Email}
}

func movementView(m models.Movement) MovementView {
	return MovementView{ID: m.ID, Amount: m.Amount, Account: m.AccountID, Description: m.Description, Created: m.Created}
}

// accountView shapes an account from an already ordered movement slice.
func accountView(accountID uint, moves []models.Movement) AccountView {
	av := AccountView{ID: accountID, Moves: make([]MoveView, 0, len(moves))}
	for _, m := range moves {
		av.Moves = append(av.Moves, MoveView{ID: m.ID, Created: m.Created, Description: m.Description, Amount: m.Amount})
		av.Balance += m.Amount
	}
	return av
}

// loadAccountView fetches an account's movements newest first and shapes the
// expanded view.
func loadAccountView(accountID uint) (AccountView, error) {
	var moves []models.Movement
	if err := db.Where("account_id = ?", accountID).Order("created desc").Find(&moves).Error; err != nil {
		return AccountView{}, err
	}
	return accountView(accountID, moves), nil
}
