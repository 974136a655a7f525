// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"context"
	"sync"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

// Event is an outbound notification produced by a committed operation.
type Event interface {
	Kind() string
}

type AirlineRegistered struct {
	Airline  ledger.AccountID
	Name     string
	Seq      int
	Approved bool
}

type AirlineFunded struct {
	Airline ledger.AccountID
	Amount  ledger.Money
	Active  bool
}

type AirlineApproved struct {
	Airline ledger.AccountID
	Votes   int
	Active  bool
}

type FlightRegistered struct {
	Flight    FlightID
	Airline   ledger.AccountID
	Code      string
	Departure int64
}

type OracleRegistered struct {
	Oracle  ledger.AccountID
	Indexes [ORACLE_INDEX_COUNT]uint8
}

// OracleRequest asks all oracles holding Index to report on a flight.
type OracleRequest struct {
	Index     uint8
	Flight    FlightID
	Airline   ledger.AccountID
	Code      string
	Departure int64
	Seq       uint64
}

type OracleReport struct {
	Index     uint8
	Flight    FlightID
	Airline   ledger.AccountID
	Code      string
	Departure int64
	Oracle    ledger.AccountID
	Status    StatusCode
}

// FlightStatusInfo announces a finalized (or overridden) flight status.
type FlightStatusInfo struct {
	Flight    FlightID
	Airline   ledger.AccountID
	Code      string
	Departure int64
	Status    StatusCode
}

type InsurancePurchased struct {
	Flight    FlightID
	Passenger ledger.AccountID
	Premium   ledger.Money
	Total     ledger.Money
}

type InsureesCredited struct {
	Flight   FlightID
	Airline  ledger.AccountID
	Policies int
	Total    ledger.Money
}

type InsuranceClaimed struct {
	Flight    FlightID
	Passenger ledger.AccountID
	Amount    ledger.Money
}

func (AirlineRegistered) Kind() string  { return "airline_registered" }
func (AirlineFunded) Kind() string      { return "airline_funded" }
func (AirlineApproved) Kind() string    { return "airline_approved" }
func (FlightRegistered) Kind() string   { return "flight_registered" }
func (OracleRegistered) Kind() string   { return "oracle_registered" }
func (OracleRequest) Kind() string      { return "oracle_request" }
func (OracleReport) Kind() string       { return "oracle_report" }
func (FlightStatusInfo) Kind() string   { return "flight_status_info" }
func (InsurancePurchased) Kind() string { return "insurance_purchased" }
func (InsureesCredited) Kind() string   { return "insurees_credited" }
func (InsuranceClaimed) Kind() string   { return "insurance_claimed" }

// Outbox is an unbounded FIFO of events. The contract appends, a single
// consumer reads with Next or Drain.
type Outbox struct {
	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
}

func NewOutbox() *Outbox {
	return &Outbox{
		queue:  make([]Event, 0),
		notify: make(chan struct{}, 1),
	}
}

func (o *Outbox) publish(ev Event) {
	o.mu.Lock()
	o.queue = append(o.queue, ev)
	o.mu.Unlock()
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Drain removes and returns all queued events.
func (o *Outbox) Drain() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	events := o.queue
	o.queue = make([]Event, 0)
	return events
}

// Next blocks until an event is available or ctx is done.
func (o *Outbox) Next(ctx context.Context) (Event, error) {
	for {
		o.mu.Lock()
		if len(o.queue) > 0 {
			ev := o.queue[0]
			o.queue[0] = nil
			o.queue = o.queue[1:]
			o.mu.Unlock()
			return ev, nil
		}
		o.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-o.notify:
		}
	}
}
