// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"fmt"
	"sync"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

const DEFAULT_ADDRESS ledger.AccountID = "flightsurety.contract"

type Config struct {
	Owner            ledger.AccountID
	Address          ledger.AccountID // contract account in Bank, defaults to DEFAULT_ADDRESS
	FirstAirline     ledger.AccountID
	FirstAirlineName string
	Bank             ledger.Bank
	Indexes          IndexSource // defaults to a fresh EntropySource
	Outbox           *Outbox
}

// Surety executes contract calls one at a time against a ContractState.
type Surety struct {
	mu      sync.Mutex
	state   ContractState
	bank    ledger.Bank
	indexes IndexSource
	outbox  *Outbox
}

var _ Contract = (*Surety)(nil)

func New(cfg Config) (*Surety, error) {
	if cfg.Owner == "" {
		return nil, fmt.Errorf("missing contract owner")
	}
	if cfg.FirstAirline == "" {
		return nil, fmt.Errorf("missing first airline")
	}
	if cfg.Address == "" {
		cfg.Address = DEFAULT_ADDRESS
	}
	if cfg.Bank == nil {
		cfg.Bank = ledger.NewAccounts()
	}
	if cfg.Indexes == nil {
		src, err := NewEntropySource()
		if err != nil {
			return nil, err
		}
		cfg.Indexes = src
	}
	if cfg.Outbox == nil {
		cfg.Outbox = NewOutbox()
	}
	s := &Surety{
		state: ContractState{
			Owner:          cfg.Owner,
			Address:        cfg.Address,
			Operational:    true,
			NextAirlineSeq: 1,
			Airlines:       make(map[ledger.AccountID]*Airline),
			AirlineOrder:   make([]ledger.AccountID, 0),
			Flights:        make(map[FlightID]*Flight),
			FlightOrder:    make([]FlightID, 0),
			Oracles:        make(map[ledger.AccountID]*Oracle),
			Requests:       make(map[requestKey]*Request),
			Policies:       make(map[FlightID]map[ledger.AccountID]*Policy),
		},
		bank:    cfg.Bank,
		indexes: cfg.Indexes,
		outbox:  cfg.Outbox,
	}

	// genesis airline is approved but must still fund before acting
	s.addAirline(cfg.FirstAirline, cfg.FirstAirlineName, true)
	return s, nil
}

func (s *Surety) Events() *Outbox {
	return s.outbox
}

func (s *Surety) Owner() ledger.AccountID {
	return s.state.Owner
}

func (s *Surety) Address() ledger.AccountID {
	return s.state.Address
}

func (s *Surety) IsOperational() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Operational
}

// Pauses or resumes all state-mutating calls
// Called by: owner
func (s *Surety) SetOperational(call ledger.Call, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if call.Caller != s.state.Owner {
		return fmt.Errorf("set operational: %w", ErrUnauthorized)
	}
	s.state.Operational = on
	return nil
}

// Overrides a flight status without oracle consensus
// Called by: owner
func (s *Surety) ProcessFlightStatusTestMode(call ledger.Call, key FlightKey, status StatusCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return err
	}
	if call.Caller != s.state.Owner {
		return fmt.Errorf("status override: %w", ErrUnauthorized)
	}
	if !status.IsValid() {
		return fmt.Errorf("status override %d: %w", status, ErrInvalidStatus)
	}
	f, err := s.flight(key)
	if err != nil {
		return err
	}
	s.applyStatus(f, status, call.Time.Unix())
	return nil
}

func (s *Surety) requireOperational() error {
	if !s.state.Operational {
		return ErrNotOperational
	}
	return nil
}

// applyStatus sets status and update time unconditionally and announces it.
// Finalize-once is enforced by the request epoch, not here.
func (s *Surety) applyStatus(f *Flight, status StatusCode, now int64) {
	f.Status = status
	f.UpdatedAt = now
	s.outbox.publish(FlightStatusInfo{
		Flight:    f.ID,
		Airline:   f.Key.Airline,
		Code:      f.Key.Code,
		Departure: f.Key.Departure,
		Status:    status,
	})
}
