package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already registered")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrBadCredentials    = errors.New("wrong user id or password")
	ErrInvalidAccount    = errors.New("invalid account")
	// ErrUnavailable marks transport and timeout failures of the ledger.
	ErrUnavailable = errors.New("ledger unavailable")
)

// OpeningBalance is credited to every self-registered account.
var OpeningBalance = decimal.NewFromInt(500)

type Account struct {
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	CredentialHash string          `json:"-"`
}

// NewAccount hashes password and returns an account holding balance.
func NewAccount(userID, name, password string, balance decimal.Decimal) (Account, error) {
	if userID == "" || password == "" {
		return Account{}, fmt.Errorf("%w: user id and password are required", ErrInvalidAccount)
	}
	if balance.IsNegative() {
		return Account{}, fmt.Errorf("%w: negative opening balance", ErrInvalidAmount)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash credential: %w", err)
	}
	return Account{UserID: userID, Name: name, Balance: balance, CredentialHash: string(hash)}, nil
}

// Debit returns the account after removing amount. The balance never goes
// negative.
func (a Account) Debit(amount decimal.Decimal) (Account, error) {
	if amount.IsNegative() {
		return a, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if a.Balance.LessThan(amount) {
		return a, fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds, a.Balance, amount)
	}
	a.Balance = a.Balance.Sub(amount)
	return a, nil
}

// Credit returns the account after adding a positive amount.
func (a Account) Credit(amount decimal.Decimal) (Account, error) {
	if !amount.IsPositive() {
		return a, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	a.Balance = a.Balance.Add(amount)
	return a, nil
}

func (a Account) CheckPassword(password string) error {
	if a.CredentialHash == "" || bcrypt.CompareHashAndPassword([]byte(a.CredentialHash), []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}
