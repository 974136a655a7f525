// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package ledger

import (
	"errors"
	"fmt"
	"sync"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// Accounts is an in-memory Bank used by the simulator and tests.
type Accounts struct {
	mu       sync.Mutex
	balances map[AccountID]Money
}

func NewAccounts() *Accounts {
	return &Accounts{
		balances: make(map[AccountID]Money),
	}
}

// Mint credits amount to acc out of thin air.
func (a *Accounts) Mint(acc AccountID, amount Money) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[acc] += amount
}

func (a *Accounts) Balance(acc AccountID) Money {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balances[acc]
}

func (a *Accounts) Transfer(from, to AccountID, amount Money) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount == 0 {
		return nil
	}
	if a.balances[from] < amount {
		return fmt.Errorf("transfer %s from %s: %w", amount, from, ErrInsufficientBalance)
	}
	a.balances[from] -= amount
	a.balances[to] += amount
	return nil
}
