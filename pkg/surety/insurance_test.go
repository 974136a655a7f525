// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

func TestInsuranceLifecycle(t *testing.T) {
	f := newFixture(t)
	f.activate(AIRLINE_A)
	key := f.flight(AIRLINE_A, "AA100")

	require.NoError(t, f.s.BuyInsurance(f.pay(PASSENGER, ledger.Unit), key))
	p, err := f.s.FetchInsuranceInfo(key, PASSENGER)
	require.NoError(t, err)
	assert.Equal(t, ledger.Unit, p.Premium)
	assert.Zero(t, p.Claimable)
	pool, _ := f.s.Pool(AIRLINE_A)
	assert.Equal(t, ledger.Units(11), pool, "premium joins the airline pool")

	require.NoError(t, f.s.ProcessFlightStatusTestMode(f.call(OWNER), key, StatusLateAirline))
	require.NoError(t, f.s.CreditInsurees(f.call(AIRLINE_A), key))
	p, _ = f.s.FetchInsuranceInfo(key, PASSENGER)
	assert.Equal(t, ledger.Unit.Mul(3).Div(2), p.Claimable, "1.5 units credited")
	pool, _ = f.s.Pool(AIRLINE_A)
	assert.Equal(t, ledger.Units(11)-ledger.Unit.Mul(3).Div(2), pool, "payout reserved from pool")

	before := f.bank.Balance(PASSENGER)
	require.NoError(t, f.s.ClaimInsurance(f.call(PASSENGER), key, PASSENGER))
	assert.Equal(t, before+ledger.Unit.Mul(3).Div(2), f.bank.Balance(PASSENGER), "receives exactly 1.5 units")
	p, _ = f.s.FetchInsuranceInfo(key, PASSENGER)
	assert.Zero(t, p.Claimable)
	assert.True(t, p.Claimed)

	err = f.s.ClaimInsurance(f.call(PASSENGER), key, PASSENGER)
	assert.True(t, errors.Is(err, ErrNothingToClaim), "second claim")
	err = f.s.BuyInsurance(f.pay(PASSENGER, ledger.Unit), key)
	assert.True(t, errors.Is(err, ErrAlreadyClaimed), "claimed policy cannot be topped up")
}

func TestBuyInsuranceLimits(t *testing.T) {
	f := newFixture(t)
	f.activate(AIRLINE_A)
	key := f.flight(AIRLINE_A, "AA100")

	err := f.s.BuyInsurance(f.pay(PASSENGER, 0), key)
	assert.True(t, errors.Is(err, ErrInsufficientPremium), "zero premium")
	err = f.s.BuyInsurance(f.pay(PASSENGER, MAX_PREMIUM+1), key)
	assert.True(t, errors.Is(err, ErrPremiumTooHigh), "above cap")
	err = f.s.BuyInsurance(f.pay(PASSENGER, ledger.Unit), NewFlightKey(AIRLINE_A, "XX1", f.now))
	assert.True(t, errors.Is(err, ErrNotFound), "unknown flight")
	_, err = f.s.FetchInsuranceInfo(key, PASSENGER)
	assert.True(t, errors.Is(err, ErrNotFound), "no policy yet")

	// top-ups accumulate up to the cap
	half := ledger.Unit.Div(2)
	require.NoError(t, f.s.BuyInsurance(f.pay(PASSENGER, half), key))
	err = f.s.BuyInsurance(f.pay(PASSENGER, ^ledger.Money(0)-half+2), key)
	assert.True(t, errors.Is(err, ErrPremiumTooHigh), "total wraps around")
	require.NoError(t, f.s.BuyInsurance(f.pay(PASSENGER, half), key))
	err = f.s.BuyInsurance(f.pay(PASSENGER, 1), key)
	assert.True(t, errors.Is(err, ErrPremiumTooHigh), "cap reached")

	p, _ := f.s.FetchInsuranceInfo(key, PASSENGER)
	assert.Equal(t, MAX_PREMIUM, p.Premium)
	assert.Equal(t, ledger.Units(99), f.bank.Balance(PASSENGER), "only accepted premiums are paid")

	events := f.s.Events().Drain()
	last, ok := events[len(events)-1].(InsurancePurchased)
	require.True(t, ok)
	assert.Equal(t, half, last.Premium)
	assert.Equal(t, MAX_PREMIUM, last.Total)
}

func TestCreditInsurees(t *testing.T) {
	f := newFixture(t)
	f.activate(AIRLINE_A)
	require.NoError(t, f.s.RegisterAirline(f.call(AIRLINE_A), AIRLINE_B, "Bravo"))
	f.activate(AIRLINE_B)
	key := f.flight(AIRLINE_A, "AA100")
	require.NoError(t, f.s.BuyInsurance(f.pay(PASSENGER, ledger.Unit), key))
	require.NoError(t, f.s.BuyInsurance(f.pay(STRANGER, ledger.Unit.Div(2)), key))

	// nothing happens while the flight is not late by airline fault
	require.NoError(t, f.s.CreditInsurees(f.call(AIRLINE_A), key))
	require.NoError(t, f.s.ProcessFlightStatusTestMode(f.call(OWNER), key, StatusLateWeather))
	require.NoError(t, f.s.CreditInsurees(f.call(AIRLINE_A), key))
	p, _ := f.s.FetchInsuranceInfo(key, PASSENGER)
	assert.Zero(t, p.Claimable, "weather delays are not covered")
	err := f.s.ClaimInsurance(f.call(PASSENGER), key, PASSENGER)
	assert.True(t, errors.Is(err, ErrNothingToClaim), "nothing credited")

	require.NoError(t, f.s.ProcessFlightStatusTestMode(f.call(OWNER), key, StatusLateAirline))
	err = f.s.CreditInsurees(f.call(AIRLINE_B), key)
	assert.True(t, errors.Is(err, ErrUnauthorized), "other airline may not credit")
	err = f.s.ClaimInsurance(f.call(STRANGER), key, PASSENGER)
	assert.True(t, errors.Is(err, ErrUnauthorized), "claim for somebody else")

	f.kinds()
	require.NoError(t, f.s.CreditInsurees(f.call(AIRLINE_A), key))
	require.NoError(t, f.s.CreditInsurees(f.call(AIRLINE_A), key), "second credit is a no-op")
	events := f.s.Events().Drain()
	require.Len(t, events, 1, "credited once")
	ev := events[0].(InsureesCredited)
	assert.Equal(t, 2, ev.Policies)
	assert.Equal(t, ledger.Unit.Mul(3).Div(2)+ledger.Unit.Div(2).Mul(3).Div(2), ev.Total)

	p, _ = f.s.FetchInsuranceInfo(key, PASSENGER)
	assert.Equal(t, ledger.Unit.Mul(3).Div(2), p.Claimable, "credited exactly once")
	p, _ = f.s.FetchInsuranceInfo(key, STRANGER)
	assert.Equal(t, ledger.Unit.Div(2).Mul(3).Div(2), p.Claimable, "0.75 units")

	info, _ := f.s.GetFlightInfo(key)
	assert.True(t, info.Credited)
}

func TestCreditInsufficientPool(t *testing.T) {
	f := newFixture(t)
	f.activate(AIRLINE_A)
	key := f.flight(AIRLINE_A, "AA100")

	// pool 10 + 21 premiums cannot cover 21 * 1.5
	for i := 0; i < 21; i++ {
		acc := ledger.AccountID(fmt.Sprintf("passenger-%d.near", i))
		f.bank.Mint(acc, ledger.Unit)
		require.NoError(t, f.s.BuyInsurance(f.pay(acc, ledger.Unit), key))
	}
	require.NoError(t, f.s.ProcessFlightStatusTestMode(f.call(OWNER), key, StatusLateAirline))
	err := f.s.CreditInsurees(f.call(AIRLINE_A), key)
	assert.True(t, errors.Is(err, ErrInsufficientPool))

	pool, _ := f.s.Pool(AIRLINE_A)
	assert.Equal(t, ledger.Units(31), pool, "pool untouched")
	p, _ := f.s.FetchInsuranceInfo(key, "passenger-0.near")
	assert.Zero(t, p.Claimable, "no partial credit")

	// a top-up makes the payout possible
	require.NoError(t, f.s.Fund(f.pay(AIRLINE_A, MIN_AIRLINE_FUNDING)))
	require.NoError(t, f.s.CreditInsurees(f.call(AIRLINE_A), key))
	pool, _ = f.s.Pool(AIRLINE_A)
	assert.Equal(t, ledger.Units(9)+ledger.Unit.Div(2), pool)
}

func TestClaimTransferFailure(t *testing.T) {
	f := newFixture(t)
	f.activate(AIRLINE_A)
	key := f.flight(AIRLINE_A, "AA100")
	require.NoError(t, f.s.BuyInsurance(f.pay(PASSENGER, ledger.Unit), key))
	require.NoError(t, f.s.ProcessFlightStatusTestMode(f.call(OWNER), key, StatusLateAirline))
	require.NoError(t, f.s.CreditInsurees(f.call(AIRLINE_A), key))

	// drain the contract account to force a failing payout
	require.NoError(t, f.bank.Transfer(DEFAULT_ADDRESS, STRANGER, f.bank.Balance(DEFAULT_ADDRESS)))
	err := f.s.ClaimInsurance(f.call(PASSENGER), key, PASSENGER)
	assert.True(t, errors.Is(err, ledger.ErrInsufficientBalance))
	p, _ := f.s.FetchInsuranceInfo(key, PASSENGER)
	assert.False(t, p.Claimed, "failed claim has no effect")
	assert.Equal(t, ledger.Unit.Mul(3).Div(2), p.Claimable)
}
