// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package simulator

import (
	"context"
	"errors"
	"time"

	"github.com/echa/log"

	"blockwatch.cc/flightsurety/pkg/feed"
	"blockwatch.cc/flightsurety/pkg/ledger"
	"blockwatch.cc/flightsurety/pkg/metrics"
	"blockwatch.cc/flightsurety/pkg/surety"
)

// Contract is the contract surface the dispatcher drives.
type Contract interface {
	surety.Contract
	Flights() []surety.FlightInfo
	NumActive() int
}

type DispatcherConfig struct {
	Contract Contract
	Outbox   *surety.Outbox
	Fleet    *Fleet           // optional, answers oracle requests
	Feed     feed.Repository  // optional, mirrors flights and statuses
	Metrics  *metrics.Metrics // optional
	Clock    func() time.Time // defaults to time.Now
}

// Dispatcher is the single consumer of the contract outbox. It forwards
// requests to the oracle fleet, credits insurees on airline fault, and keeps
// the flight feed and metrics up to date.
type Dispatcher struct {
	contract Contract
	outbox   *surety.Outbox
	fleet    *Fleet
	feed     feed.Repository
	metrics  *metrics.Metrics
	clock    func() time.Time
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Dispatcher{
		contract: cfg.Contract,
		outbox:   cfg.Outbox,
		fleet:    cfg.Fleet,
		feed:     cfg.Feed,
		metrics:  cfg.Metrics,
		clock:    cfg.Clock,
	}
}

// Run handles events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		ev, err := d.outbox.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		d.Handle(ctx, ev)
	}
}

// Flush handles queued events, including those produced while handling,
// until the outbox is empty. Returns the number of handled events.
func (d *Dispatcher) Flush(ctx context.Context) int {
	var n int
	for {
		events := d.outbox.Drain()
		if len(events) == 0 {
			return n
		}
		for _, ev := range events {
			d.Handle(ctx, ev)
			n++
		}
	}
}

func (d *Dispatcher) Handle(ctx context.Context, ev surety.Event) {
	if d.metrics != nil {
		d.metrics.Observe(ev)
	}
	switch e := ev.(type) {
	case surety.AirlineRegistered:
		log.Infof("Airline %s registered seq=%d approved=%t", e.Airline, e.Seq, e.Approved)
	case surety.AirlineFunded, surety.AirlineApproved:
		if d.metrics != nil {
			d.metrics.SetActive(d.contract.NumActive())
		}
	case surety.FlightRegistered:
		log.Infof("Flight registered: %s %s %d", e.Airline, e.Code, e.Departure)
		if d.feed != nil {
			if err := d.feed.Upsert(ctx, feed.NewFlight(e, d.clock())); err != nil {
				d.fail("feed", err)
			}
		}
	case surety.OracleRequest:
		if d.fleet != nil {
			n := d.fleet.Respond(e)
			log.Debugf("Request %s#%d index %d: %d reports", e.Code, e.Seq, e.Index, n)
		}
	case surety.OracleReport:
		log.Debugf("Oracle Report: %s %s %d %d", e.Airline, e.Code, e.Departure, e.Status)
	case surety.FlightStatusInfo:
		d.status(ctx, e)
	case surety.InsureesCredited:
		log.Infof("Credited %d policies on %s total %s", e.Policies, e.Flight, e.Total)
	case surety.InsuranceClaimed:
		log.Infof("Passenger %s claimed %s", e.Passenger, e.Amount)
	}
}

func (d *Dispatcher) status(ctx context.Context, e surety.FlightStatusInfo) {
	log.Infof("Flight Status Info: %s %s %d %s", e.Airline, e.Code, e.Departure, e.Status)
	if d.feed != nil {
		if err := d.feed.UpdateStatus(ctx, e.Flight, e.Status, d.clock()); err != nil {
			d.fail("feed", err)
		}
	}
	if e.Status != surety.StatusLateAirline {
		return
	}

	// airline fault, credit insurees on behalf of the flight's airline
	key := surety.FlightKey{
		Airline:   e.Airline,
		Code:      e.Code,
		Departure: e.Departure,
	}
	if err := d.contract.CreditInsurees(ledger.NewCall(e.Airline, d.clock()), key); err != nil {
		d.fail("credit", err)
	}
}

// RequestUnresolved opens a status request for every flight whose status is
// still unknown. Returns the number of opened requests.
func (d *Dispatcher) RequestUnresolved(requester ledger.AccountID) int {
	var n int
	for _, f := range d.contract.Flights() {
		if f.Status != surety.StatusUnknown {
			continue
		}
		key := surety.FlightKey{
			Airline:   f.Airline,
			Code:      f.Code,
			Departure: f.Departure,
		}
		if _, err := d.contract.RequestStatus(ledger.NewCall(requester, d.clock()), key); err != nil {
			d.fail("request", err)
			continue
		}
		n++
	}
	return n
}

// Poll calls RequestUnresolved on every tick until ctx is cancelled.
func (d *Dispatcher) Poll(ctx context.Context, requester ledger.AccountID, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infof("Status poller stopped")
			return
		case <-ticker.C:
			if n := d.RequestUnresolved(requester); n > 0 {
				log.Infof("Requested status for %d flights", n)
			}
		}
	}
}

func (d *Dispatcher) fail(op string, err error) {
	log.Errorf("%s: %v", op, err)
	if d.metrics != nil {
		d.metrics.Fail(op)
	}
}
