// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"fmt"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

// Registers the caller as oracle for the attached fee and assigns its
// indexes. Indexes may repeat.
// Called by: oracle
func (s *Surety) RegisterOracle(call ledger.Call) ([ORACLE_INDEX_COUNT]uint8, error) {
	var indexes [ORACLE_INDEX_COUNT]uint8
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return indexes, err
	}
	if call.Value < ORACLE_REGISTRATION_FEE {
		return indexes, fmt.Errorf("register oracle %s with %s: %w", call.Caller, call.Value, ErrInsufficientFee)
	}
	if _, ok := s.state.Oracles[call.Caller]; ok {
		return indexes, fmt.Errorf("register oracle %s: %w", call.Caller, ErrAlreadyRegistered)
	}
	if err := s.bank.Transfer(call.Caller, s.state.Address, call.Value); err != nil {
		return indexes, fmt.Errorf("register oracle %s: %w", call.Caller, err)
	}
	for i := range indexes {
		indexes[i] = s.indexes.NextIndex(call.Caller)
	}
	s.state.Oracles[call.Caller] = &Oracle{
		ID:      call.Caller,
		Indexes: indexes,
	}
	s.outbox.publish(OracleRegistered{
		Oracle:  call.Caller,
		Indexes: indexes,
	})
	return indexes, nil
}

// Views an oracle's indexes
// Called by: oracle
func (s *Surety) GetMyIndexes(oracle ledger.AccountID) ([ORACLE_INDEX_COUNT]uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.Oracles[oracle]
	if !ok {
		return [ORACLE_INDEX_COUNT]uint8{}, fmt.Errorf("oracle %s: %w", oracle, ErrNotFound)
	}
	return o.Indexes, nil
}

// Opens a new request epoch for a random index bucket and emits an
// OracleRequest. An older epoch on the same bucket is replaced.
// Called by: owner, active airline or insured passenger
func (s *Surety) RequestStatus(call ledger.Call, key FlightKey) (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return 0, err
	}
	f, err := s.flight(key)
	if err != nil {
		return 0, err
	}
	if !s.mayRequest(call.Caller, f) {
		return 0, fmt.Errorf("request status %s: %w", key.Code, ErrUnauthorized)
	}
	index := s.indexes.NextIndex(call.Caller)
	f.Requests++
	s.state.Requests[requestKey{index, f.ID}] = &Request{
		Index:     index,
		Flight:    f.ID,
		Seq:       f.Requests,
		Requester: call.Caller,
		tally:     NewTally(),
	}
	s.outbox.publish(OracleRequest{
		Index:     index,
		Flight:    f.ID,
		Airline:   f.Key.Airline,
		Code:      f.Key.Code,
		Departure: f.Key.Departure,
		Seq:       f.Requests,
	})
	return index, nil
}

func (s *Surety) mayRequest(caller ledger.AccountID, f *Flight) bool {
	if caller == s.state.Owner {
		return true
	}
	if a, ok := s.state.Airlines[caller]; ok && a.Active() {
		return true
	}
	_, ok := s.state.Policies[f.ID][caller]
	return ok
}

// Reports a status for an open request. Once MIN_RESPONSES distinct oracles
// agree on one code the status is applied and the epoch is closed. Epochs
// opened before the one that settled the flight are closed too, and so are
// all epochs once insurees were credited.
// Called by: oracle
func (s *Surety) SubmitResponse(call ledger.Call, index uint8, key FlightKey, status StatusCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOperational(); err != nil {
		return err
	}
	if !status.IsValid() {
		return fmt.Errorf("oracle response %d: %w", status, ErrInvalidStatus)
	}
	o, ok := s.state.Oracles[call.Caller]
	if !ok || !o.HasIndex(index) {
		return fmt.Errorf("oracle %s index %d: %w", call.Caller, index, ErrNotEligible)
	}
	f, err := s.flight(key)
	if err != nil {
		return err
	}
	req, ok := s.state.Requests[requestKey{index, f.ID}]
	if !ok {
		return fmt.Errorf("no open request for %s index %d: %w", key.Code, index, ErrNotFound)
	}
	if req.Finalized || req.Seq <= f.Settled || f.Credited {
		return fmt.Errorf("request %s#%d index %d: %w", key.Code, req.Seq, index, ErrEpochFinalized)
	}

	req.tally.AddVote(call.Caller, status)
	s.outbox.publish(OracleReport{
		Index:     index,
		Flight:    f.ID,
		Airline:   f.Key.Airline,
		Code:      f.Key.Code,
		Departure: f.Key.Departure,
		Oracle:    call.Caller,
		Status:    status,
	})
	if req.tally.HasQuorum(status, MIN_RESPONSES) {
		req.Finalized = true
		req.Status = status
		f.Settled = req.Seq
		s.applyStatus(f, status, call.Time.Unix())
	}
	return nil
}

// RequestInfo is a read-only view of a request epoch.
type RequestInfo struct {
	Index     uint8
	Flight    FlightID
	Seq       uint64
	Requester ledger.AccountID
	Finalized bool
	Status    StatusCode
	Votes     []Vote
}

// Views the current request epoch of a flight bucket
// Called by: anyone
func (s *Surety) GetRequest(index uint8, key FlightKey) (RequestInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.state.Requests[requestKey{index, key.ID()}]
	if !ok {
		return RequestInfo{}, fmt.Errorf("request %s index %d: %w", key.Code, index, ErrNotFound)
	}
	return RequestInfo{
		Index:     req.Index,
		Flight:    req.Flight,
		Seq:       req.Seq,
		Requester: req.Requester,
		Finalized: req.Finalized,
		Status:    req.Status,
		Votes:     req.tally.Votes(),
	}, nil
}
