package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Store owns balances. Debit and Credit must be atomic per user.
type Store interface {
	GetAccount(ctx context.Context, userID string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	CreateAccount(ctx context.Context, a Account) (Account, error)
	Debit(ctx context.Context, userID string, amount decimal.Decimal) (Account, error)
	Credit(ctx context.Context, userID string, amount decimal.Decimal) (Account, error)
}

// Register opens an account with OpeningBalance.
func Register(ctx context.Context, s Store, userID, name, password string) (Account, error) {
	a, err := NewAccount(userID, name, password, OpeningBalance)
	if err != nil {
		return Account{}, err
	}
	return s.CreateAccount(ctx, a)
}

// Login verifies the password. Unknown users and wrong passwords are
// indistinguishable to the caller.
func Login(ctx context.Context, s Store, userID, password string) (Account, error) {
	a, err := s.GetAccount(ctx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return Account{}, ErrBadCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if err := a.CheckPassword(password); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Seed opens the starter accounts on an empty store.
func Seed(ctx context.Context, s Store) (int, error) {
	existing, err := s.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	seeds := []struct {
		id, name string
		balance  int64
	}{
		{"101", "Rahul Sharma", 1000},
		{"102", "Priya Singh", 10},
	}
	for _, sd := range seeds {
		a, err := NewAccount(sd.id, sd.name, "1234", decimal.NewFromInt(sd.balance))
		if err != nil {
			return 0, err
		}
		if _, err := s.CreateAccount(ctx, a); err != nil {
			return 0, fmt.Errorf("seed %s: %w", sd.id, err)
		}
	}
	return len(seeds), nil
}

type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: map[string]Account{}}
}

func (s *MemoryStore) GetAccount(_ context.Context, userID string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, userID)
	}
	return a, nil
}

func (s *MemoryStore) ListAccounts(_ context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemoryStore) CreateAccount(_ context.Context, a Account) (Account, error) {
	if a.UserID == "" {
		return Account{}, fmt.Errorf("%w: user id is required", ErrInvalidAccount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.UserID]; ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountExists, a.UserID)
	}
	s.accounts[a.UserID] = a
	return a, nil
}

func (s *MemoryStore) Debit(_ context.Context, userID string, amount decimal.Decimal) (Account, error) {
	return s.apply(userID, func(a Account) (Account, error) { return a.Debit(amount) })
}

func (s *MemoryStore) Credit(_ context.Context, userID string, amount decimal.Decimal) (Account, error) {
	return s.apply(userID, func(a Account) (Account, error) { return a.Credit(amount) })
}

// apply runs read-check-write under the store lock.
func (s *MemoryStore) apply(userID string, fn func(Account) (Account, error)) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, userID)
	}
	next, err := fn(a)
	if err != nil {
		return Account{}, err
	}
	s.accounts[userID] = next
	return next, nil
}
