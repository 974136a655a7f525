// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"fmt"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

// Registers a flight for the calling airline. The status starts unknown and
// the update time starts at the departure time.
// Called by: active airline
func (s *Surety) RegisterFlight(call ledger.Call, key FlightKey) (FlightID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return "", err
	}
	a, ok := s.state.Airlines[call.Caller]
	if !ok || !a.Active() {
		return "", fmt.Errorf("register flight %s: airline %s: %w", key.Code, call.Caller, ErrNotActive)
	}
	if key.Airline != call.Caller {
		return "", fmt.Errorf("register flight %s for %s: %w", key.Code, key.Airline, ErrUnauthorized)
	}
	id := key.ID()
	if _, ok := s.state.Flights[id]; ok {
		return "", fmt.Errorf("register flight %s: %w", key.Code, ErrAlreadyRegistered)
	}
	s.state.Flights[id] = &Flight{
		Key:        key,
		ID:         id,
		Status:     StatusUnknown,
		UpdatedAt:  key.Departure,
		passengers: make([]ledger.AccountID, 0),
	}
	s.state.FlightOrder = append(s.state.FlightOrder, id)
	s.state.Policies[id] = make(map[ledger.AccountID]*Policy)
	s.outbox.publish(FlightRegistered{
		Flight:    id,
		Airline:   key.Airline,
		Code:      key.Code,
		Departure: key.Departure,
	})
	return id, nil
}

// Views a flight
// Called by: anyone
func (s *Surety) GetFlightInfo(key FlightKey) (FlightInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.flight(key)
	if err != nil {
		return FlightInfo{}, err
	}
	return f.info(), nil
}

// Flights lists all registered flights in registration order.
func (s *Surety) Flights() []FlightInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]FlightInfo, 0, len(s.state.FlightOrder))
	for _, id := range s.state.FlightOrder {
		infos = append(infos, s.state.Flights[id].info())
	}
	return infos
}

func (f *Flight) info() FlightInfo {
	return FlightInfo{
		ID:        f.ID,
		Airline:   f.Key.Airline,
		Code:      f.Key.Code,
		Status:    f.Status,
		Departure: f.Key.Departure,
		UpdatedAt: f.UpdatedAt,
		Credited:  f.Credited,
	}
}

func (s *Surety) flight(key FlightKey) (*Flight, error) {
	f, ok := s.state.Flights[key.ID()]
	if !ok {
		return nil, fmt.Errorf("flight %s@%d: %w", key.Code, key.Departure, ErrNotFound)
	}
	return f, nil
}
