// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit is the number of base money units in one whole unit of value.
const Unit Money = 1_000_000_000

type AccountID string

type Money uint64

func (m Money) Mul(n int) Money {
	return m * Money(n)
}

func (m Money) Div(n int) Money {
	return m / Money(n)
}

// Units returns n whole units of value.
func Units(n uint64) Money {
	return Money(n) * Unit
}

// String formats m in whole units with up to 9 decimals, e.g. "1.5".
func (m Money) String() string {
	whole := strconv.FormatUint(uint64(m/Unit), 10)
	frac := uint64(m % Unit)
	if frac == 0 {
		return whole
	}
	s := strconv.FormatUint(frac, 10)
	s = strings.Repeat("0", 9-len(s)) + s
	return whole + "." + strings.TrimRight(s, "0")
}

// ParseMoney parses a decimal amount of whole units such as "1.5".
func ParseMoney(s string) (Money, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > 9 {
		return 0, fmt.Errorf("invalid amount %q: more than 9 decimals", s)
	}
	var w, f uint64
	var err error
	if whole != "" {
		if w, err = strconv.ParseUint(whole, 10, 64); err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}
	if frac != "" {
		if f, err = strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 64); err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}
	if limit := ^Money(0); w > uint64(limit/Unit) || Money(f) > limit-Money(w)*Unit {
		return 0, fmt.Errorf("invalid amount %q: overflow", s)
	}
	return Money(w)*Unit + Money(f), nil
}

// Call carries the execution context of a single state-mutating call.
type Call struct {
	Caller AccountID // signer of the call
	Value  Money     // value attached to the call
	Time   time.Time // execution time, used for status update stamps
}

// NewCall returns a call context for caller without attached value.
func NewCall(caller AccountID, now time.Time) Call {
	return Call{Caller: caller, Time: now}
}

// WithValue returns a copy of c carrying value v.
func (c Call) WithValue(v Money) Call {
	c.Value = v
	return c
}

// Bank is the external value-transfer primitive. A transfer either moves the
// full amount or fails without effect.
type Bank interface {
	Transfer(from, to AccountID, amount Money) error
	Balance(acc AccountID) Money
}
