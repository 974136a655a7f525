// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"fmt"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

// Buys insurance with the attached value or tops up an existing policy. The
// total premium per policy is capped at MAX_PREMIUM and pooled with the
// flight's airline.
// Called by: passenger
func (s *Surety) BuyInsurance(call ledger.Call, key FlightKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return err
	}
	f, err := s.flight(key)
	if err != nil {
		return err
	}
	if call.Value == 0 {
		return fmt.Errorf("buy insurance %s: %w", key.Code, ErrInsufficientPremium)
	}
	p, exists := s.state.Policies[f.ID][call.Caller]
	var paid ledger.Money
	if exists {
		if p.Claimed {
			return fmt.Errorf("buy insurance %s: %w", key.Code, ErrAlreadyClaimed)
		}
		paid = p.Premium
	}
	if call.Value > MAX_PREMIUM-paid {
		return fmt.Errorf("buy insurance %s with %s (paid %s): %w", key.Code, call.Value, paid, ErrPremiumTooHigh)
	}
	if err := s.bank.Transfer(call.Caller, s.state.Address, call.Value); err != nil {
		return fmt.Errorf("buy insurance %s: %w", key.Code, err)
	}

	if !exists {
		p = &Policy{
			Flight:    f.ID,
			Passenger: call.Caller,
		}
		s.state.Policies[f.ID][call.Caller] = p
		f.passengers = append(f.passengers, call.Caller)
	}
	p.Premium += call.Value
	s.state.Airlines[f.Key.Airline].Pool += call.Value
	s.outbox.publish(InsurancePurchased{
		Flight:    f.ID,
		Passenger: call.Caller,
		Premium:   call.Value,
		Total:     p.Premium,
	})
	return nil
}

// Views a passenger's policy
// Called by: anyone
func (s *Surety) FetchInsuranceInfo(key FlightKey, passenger ledger.AccountID) (PolicyInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.flight(key)
	if err != nil {
		return PolicyInfo{}, err
	}
	p, ok := s.state.Policies[f.ID][passenger]
	if !ok {
		return PolicyInfo{}, fmt.Errorf("policy %s for %s: %w", key.Code, passenger, ErrNotFound)
	}
	return PolicyInfo{
		Passenger: p.Passenger,
		Premium:   p.Premium,
		Claimable: p.Claimable,
		Claimed:   p.Claimed,
	}, nil
}

// Credits premium * 3/2 to every policy of a flight that is late by airline
// fault. The whole payout is taken from the airline pool or nothing is. Calls
// for other statuses or for already credited flights do nothing.
// Called by: flight airline
func (s *Surety) CreditInsurees(call ledger.Call, key FlightKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return err
	}
	f, err := s.flight(key)
	if err != nil {
		return err
	}
	// the flight must belong to the caller, not just any airline
	if call.Caller != f.Key.Airline {
		return fmt.Errorf("credit insurees %s: %w", key.Code, ErrUnauthorized)
	}
	if f.Status != StatusLateAirline || f.Credited {
		return nil
	}

	a := s.state.Airlines[f.Key.Airline]
	policies := s.state.Policies[f.ID]
	var total ledger.Money
	for _, acc := range f.passengers {
		p := policies[acc]
		if p.Premium == 0 || p.Claimed || p.Claimable > 0 {
			continue
		}
		total += payout(p.Premium)
	}
	if total > a.Pool {
		return fmt.Errorf("credit insurees %s: need %s, pool %s: %w", key.Code, total, a.Pool, ErrInsufficientPool)
	}

	var n int
	for _, acc := range f.passengers {
		p := policies[acc]
		if p.Premium == 0 || p.Claimed || p.Claimable > 0 {
			continue
		}
		p.Claimable = payout(p.Premium)
		n++
	}
	a.Pool -= total
	f.Credited = true
	s.outbox.publish(InsureesCredited{
		Flight:   f.ID,
		Airline:  a.ID,
		Policies: n,
		Total:    total,
	})
	return nil
}

func payout(premium ledger.Money) ledger.Money {
	return premium.Mul(PAYOUT_NUM).Div(PAYOUT_DEN)
}

// Pays out the credited amount of a policy to its passenger.
// Called by: passenger
func (s *Surety) ClaimInsurance(call ledger.Call, key FlightKey, passenger ledger.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return err
	}
	if call.Caller != passenger {
		return fmt.Errorf("claim insurance %s for %s: %w", key.Code, passenger, ErrUnauthorized)
	}
	f, err := s.flight(key)
	if err != nil {
		return err
	}
	p, ok := s.state.Policies[f.ID][passenger]
	if !ok {
		return fmt.Errorf("policy %s for %s: %w", key.Code, passenger, ErrNotFound)
	}
	if p.Claimed || p.Claimable == 0 {
		return fmt.Errorf("claim insurance %s: %w", key.Code, ErrNothingToClaim)
	}
	amount := p.Claimable
	if err := s.bank.Transfer(s.state.Address, passenger, amount); err != nil {
		return fmt.Errorf("claim insurance %s: %w", key.Code, err)
	}
	p.Claimable = 0
	p.Claimed = true
	s.outbox.publish(InsuranceClaimed{
		Flight:    f.ID,
		Passenger: passenger,
		Amount:    amount,
	})
	return nil
}

// Views the unspent pool of an airline
// Called by: anyone
func (s *Surety) Pool(airline ledger.AccountID) (ledger.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.Airlines[airline]
	if !ok {
		return 0, fmt.Errorf("airline %s: %w", airline, ErrNotFound)
	}
	return a.Pool, nil
}
