// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"fmt"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

// Registers a new airline. While fewer than BOOTSTRAP_AIRLINES exist the new
// airline is approved right away, afterwards it waits for votes.
// Called by: active airline
func (s *Surety) RegisterAirline(call ledger.Call, id ledger.AccountID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return err
	}
	if err := s.requireActive(call.Caller); err != nil {
		return fmt.Errorf("register airline %s: %w", id, err)
	}
	if id == "" {
		return fmt.Errorf("register airline: empty id: %w", ErrInvalidAirline)
	}
	if _, ok := s.state.Airlines[id]; ok {
		return fmt.Errorf("register airline %s: %w", id, ErrAlreadyRegistered)
	}
	bootstrap := len(s.state.Airlines) < BOOTSTRAP_AIRLINES
	s.addAirline(id, name, bootstrap)
	return nil
}

func (s *Surety) addAirline(id ledger.AccountID, name string, approved bool) *Airline {
	a := &Airline{
		ID:       id,
		Name:     name,
		Seq:      s.state.NextAirlineSeq,
		Approved: approved,
		votes:    NewBallot(),
	}
	s.state.NextAirlineSeq++
	s.state.Airlines[id] = a
	s.state.AirlineOrder = append(s.state.AirlineOrder, id)
	s.outbox.publish(AirlineRegistered{
		Airline:  id,
		Name:     name,
		Seq:      a.Seq,
		Approved: approved,
	})
	return a
}

// Pays the attached value into the caller's airline pool. Every payment must
// reach MIN_AIRLINE_FUNDING.
// Called by: airline
func (s *Surety) Fund(call ledger.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return err
	}
	a, ok := s.state.Airlines[call.Caller]
	if !ok {
		return fmt.Errorf("fund: airline %s: %w", call.Caller, ErrNotFound)
	}
	if call.Value < MIN_AIRLINE_FUNDING {
		return fmt.Errorf("fund %s with %s: %w", call.Caller, call.Value, ErrInsufficientFunds)
	}
	if err := s.bank.Transfer(call.Caller, s.state.Address, call.Value); err != nil {
		return fmt.Errorf("fund %s: %w", call.Caller, err)
	}
	a.Pool += call.Value
	a.Funded = true
	s.outbox.publish(AirlineFunded{
		Airline: a.ID,
		Amount:  call.Value,
		Active:  a.Active(),
	})
	return nil
}

// Casts the caller's approval vote for candidate. Repeated votes and votes for
// approved airlines are no-ops.
// Called by: active airline
func (s *Surety) ApproveAirline(call ledger.Call, candidate ledger.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return err
	}
	if err := s.requireActive(call.Caller); err != nil {
		return fmt.Errorf("approve %s: %w", candidate, err)
	}
	a, ok := s.state.Airlines[candidate]
	if !ok {
		return fmt.Errorf("approve %s: %w", candidate, ErrNotFound)
	}
	if a.Approved || !a.votes.AddVote(call.Caller) {
		return nil
	}

	// only votes cast by currently active airlines count
	votes := 0
	for _, v := range a.votes.Voters() {
		if voter, ok := s.state.Airlines[v]; ok && voter.Active() {
			votes++
		}
	}
	if votes >= approvalThreshold(s.numActive()) {
		a.Approved = true
		s.outbox.publish(AirlineApproved{
			Airline: a.ID,
			Votes:   votes,
			Active:  a.Active(),
		})
	}
	return nil
}

// Views an airline
// Called by: anyone
func (s *Surety) FetchAirlineInfo(id ledger.AccountID) (AirlineInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.Airlines[id]
	if !ok {
		return AirlineInfo{}, fmt.Errorf("airline %s: %w", id, ErrNotFound)
	}
	return a.info(), nil
}

func (a *Airline) info() AirlineInfo {
	return AirlineInfo{
		ID:       a.ID,
		Name:     a.Name,
		Seq:      a.Seq,
		Funded:   a.Funded,
		Approved: a.Approved,
		Active:   a.Active(),
		Votes:    a.votes.NumVotes(),
		Pool:     a.Pool,
	}
}

// IsAirline reports whether id is a registered airline, approved or not.
func (s *Surety) IsAirline(id ledger.AccountID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.Airlines[id]
	return ok
}

// Airlines lists all airlines in registration order.
func (s *Surety) Airlines() []AirlineInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]AirlineInfo, 0, len(s.state.AirlineOrder))
	for _, id := range s.state.AirlineOrder {
		infos = append(infos, s.state.Airlines[id].info())
	}
	return infos
}

// NumActive returns the number of funded and approved airlines.
func (s *Surety) NumActive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numActive()
}

func (s *Surety) numActive() int {
	var n int
	for _, a := range s.state.Airlines {
		if a.Active() {
			n++
		}
	}
	return n
}

func (s *Surety) requireActive(id ledger.AccountID) error {
	a, ok := s.state.Airlines[id]
	if !ok || !a.Active() {
		return ErrUnauthorized
	}
	return nil
}
