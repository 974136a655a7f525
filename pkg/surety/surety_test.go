// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

const (
	OWNER     = "owner.near"
	AIRLINE_A = "airline-a.near"
	AIRLINE_B = "airline-b.near"
	AIRLINE_C = "airline-c.near"
	AIRLINE_D = "airline-d.near"
	AIRLINE_E = "airline-e.near"
	AIRLINE_F = "airline-f.near"
	PASSENGER = "passenger.near"
	STRANGER  = "stranger.near"
)

var genesis = time.Unix(1_650_000_000, 0).UTC()

type fixture struct {
	t    *testing.T
	s    *Surety
	bank *ledger.Accounts
	now  time.Time
}

// newFixture deploys a contract with AIRLINE_A as genesis airline. Optional
// indexes make bucket assignment deterministic.
func newFixture(t *testing.T, indexes ...uint8) *fixture {
	t.Helper()
	bank := ledger.NewAccounts()
	for _, acc := range []ledger.AccountID{
		OWNER, AIRLINE_A, AIRLINE_B, AIRLINE_C, AIRLINE_D,
		AIRLINE_E, AIRLINE_F, PASSENGER, STRANGER,
	} {
		bank.Mint(acc, ledger.Units(100))
	}
	cfg := Config{
		Owner:            OWNER,
		FirstAirline:     AIRLINE_A,
		FirstAirlineName: "Alpha Air",
		Bank:             bank,
	}
	if len(indexes) > 0 {
		cfg.Indexes = NewSequenceSource(indexes...)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return &fixture{t: t, s: s, bank: bank, now: genesis}
}

func (f *fixture) call(caller ledger.AccountID) ledger.Call {
	return ledger.NewCall(caller, f.now)
}

func (f *fixture) pay(caller ledger.AccountID, v ledger.Money) ledger.Call {
	return f.call(caller).WithValue(v)
}

// activate funds an already approved airline with the minimum amount.
func (f *fixture) activate(id ledger.AccountID) {
	f.t.Helper()
	require.NoError(f.t, f.s.Fund(f.pay(id, MIN_AIRLINE_FUNDING)), "fund %s", id)
}

// flight registers a flight for an active airline departing in 3 hours.
func (f *fixture) flight(airline ledger.AccountID, code string) FlightKey {
	f.t.Helper()
	key := NewFlightKey(airline, code, f.now.Add(3*time.Hour))
	_, err := f.s.RegisterFlight(f.call(airline), key)
	require.NoError(f.t, err, "register flight %s", code)
	return key
}

// kinds drains the outbox and returns the event kinds in order.
func (f *fixture) kinds() []string {
	events := f.s.Events().Drain()
	kinds := make([]string, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind())
	}
	return kinds
}

func TestNew(t *testing.T) {
	_, err := New(Config{FirstAirline: AIRLINE_A})
	assert.Error(t, err, "missing owner")
	_, err = New(Config{Owner: OWNER})
	assert.Error(t, err, "missing first airline")

	f := newFixture(t)
	assert.Equal(t, ledger.AccountID(OWNER), f.s.Owner())
	assert.Equal(t, DEFAULT_ADDRESS, f.s.Address())
	assert.True(t, f.s.IsOperational(), "starts operational")
	assert.True(t, f.s.IsAirline(AIRLINE_A), "genesis airline exists")

	info, err := f.s.FetchAirlineInfo(AIRLINE_A)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Seq, "genesis seq")
	assert.Equal(t, "Alpha Air", info.Name)
	assert.True(t, info.Approved, "genesis is approved")
	assert.False(t, info.Funded, "genesis is not funded")
	assert.False(t, info.Active, "genesis is not active before funding")
	assert.Equal(t, []string{"airline_registered"}, f.kinds())
}

func TestOperationalSwitch(t *testing.T) {
	f := newFixture(t)
	err := f.s.SetOperational(f.call(AIRLINE_A), false)
	assert.True(t, errors.Is(err, ErrUnauthorized), "only owner may pause")
	assert.True(t, f.s.IsOperational())

	require.NoError(t, f.s.SetOperational(f.call(OWNER), false))
	assert.False(t, f.s.IsOperational())
	err = f.s.Fund(f.pay(AIRLINE_A, MIN_AIRLINE_FUNDING))
	assert.True(t, errors.Is(err, ErrNotOperational), "paused contract rejects calls")
	assert.Equal(t, ledger.Units(100), f.bank.Balance(AIRLINE_A), "no value moved")

	require.NoError(t, f.s.SetOperational(f.call(OWNER), true))
	assert.NoError(t, f.s.Fund(f.pay(AIRLINE_A, MIN_AIRLINE_FUNDING)), "resumed")
}

func TestStatusOverride(t *testing.T) {
	f := newFixture(t)
	f.activate(AIRLINE_A)
	key := f.flight(AIRLINE_A, "AA100")
	f.kinds()

	err := f.s.ProcessFlightStatusTestMode(f.call(AIRLINE_A), key, StatusLateAirline)
	assert.True(t, errors.Is(err, ErrUnauthorized), "only owner may override")
	err = f.s.ProcessFlightStatusTestMode(f.call(OWNER), key, StatusCode(11))
	assert.True(t, errors.Is(err, ErrInvalidStatus), "invalid code")
	err = f.s.ProcessFlightStatusTestMode(f.call(OWNER), NewFlightKey(AIRLINE_A, "XX1", f.now), StatusOnTime)
	assert.True(t, errors.Is(err, ErrNotFound), "unknown flight")

	f.now = f.now.Add(4 * time.Hour)
	require.NoError(t, f.s.ProcessFlightStatusTestMode(f.call(OWNER), key, StatusLateAirline))
	info, err := f.s.GetFlightInfo(key)
	require.NoError(t, err)
	assert.Equal(t, StatusLateAirline, info.Status)
	assert.Equal(t, f.now.Unix(), info.UpdatedAt, "update time is call time")
	assert.Equal(t, []string{"flight_status_info"}, f.kinds())
}

func TestOutbox(t *testing.T) {
	o := NewOutbox()
	o.publish(AirlineFunded{Airline: AIRLINE_A})
	o.publish(AirlineApproved{Airline: AIRLINE_B})
	assert.Equal(t, 2, o.Len())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := o.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "airline_funded", ev.Kind(), "fifo order")
	ev, err = o.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "airline_approved", ev.Kind(), "fifo order")
	assert.Zero(t, o.Len())

	go func() {
		time.Sleep(10 * time.Millisecond)
		o.publish(InsuranceClaimed{Passenger: PASSENGER})
	}()
	ev, err = o.Next(ctx)
	require.NoError(t, err, "wakes up on publish")
	assert.Equal(t, "insurance_claimed", ev.Kind())

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	_, err = o.Next(cancelled)
	assert.True(t, errors.Is(err, context.Canceled), "returns on cancel")
}

func TestEntropySource(t *testing.T) {
	src, err := NewEntropySource()
	require.NoError(t, err)
	seen := make(map[uint8]bool)
	for i := 0; i < 1000; i++ {
		idx := src.NextIndex(PASSENGER)
		require.Less(t, idx, uint8(INDEX_BUCKETS), "index in range")
		seen[idx] = true
	}
	assert.Greater(t, len(seen), 5, "indexes are spread over buckets")
}

func TestSequenceSource(t *testing.T) {
	src := NewSequenceSource(2, 5, 17)
	var got []uint8
	for i := 0; i < 4; i++ {
		got = append(got, src.NextIndex(PASSENGER))
	}
	assert.Equal(t, []uint8{2, 5, 7, 2}, got, "wraps around and stays in range")
}

func TestFlightKey(t *testing.T) {
	dep := time.Unix(1_650_010_800, 0)
	k1 := NewFlightKey(AIRLINE_A, "AA100", dep)
	k2 := NewFlightKey(AIRLINE_A, "AA100", dep)
	assert.Equal(t, k1.ID(), k2.ID(), "deterministic id")
	assert.NotEqual(t, k1.ID(), NewFlightKey(AIRLINE_B, "AA100", dep).ID(), "airline is part of the key")
	assert.NotEqual(t, k1.ID(), NewFlightKey(AIRLINE_A, "AA100", dep.Add(time.Second)).ID(), "time is part of the key")

	id, err := ParseFlightID(string(k1.ID()))
	require.NoError(t, err)
	assert.Equal(t, k1.ID(), id)
	_, err = ParseFlightID("not-a-cid")
	assert.Error(t, err)
}
