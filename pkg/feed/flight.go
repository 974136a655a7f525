// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package feed

import (
	"context"
	"errors"
	"strconv"
	"time"

	"blockwatch.cc/flightsurety/pkg/ledger"
	"blockwatch.cc/flightsurety/pkg/surety"
)

var ErrNotFound = errors.New("flight not found")

// Flight is a discoverable flight as listed by the feed.
type Flight struct {
	ID         surety.FlightID   `json:"id" bson:"_id"`
	Airline    ledger.AccountID  `json:"airline" bson:"airline"`
	Code       string            `json:"flight" bson:"flight"`
	Departure  int64             `json:"departureTime" bson:"departure"`
	Status     surety.StatusCode `json:"status" bson:"status"`
	StatusName string            `json:"statusName" bson:"statusName"`
	UpdatedAt  time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// NewFlight builds a feed entry for a freshly registered flight.
func NewFlight(ev surety.FlightRegistered, now time.Time) *Flight {
	return &Flight{
		ID:         ev.Flight,
		Airline:    ev.Airline,
		Code:       ev.Code,
		Departure:  ev.Departure,
		Status:     surety.StatusUnknown,
		StatusName: surety.StatusUnknown.String(),
		UpdatedAt:  now,
	}
}

// Key returns the contract key of the flight.
func (f Flight) Key() surety.FlightKey {
	return surety.FlightKey{
		Airline:   f.Airline,
		Code:      f.Code,
		Departure: f.Departure,
	}
}

// Filter selects feed entries. Status accepts a numeric code ("20") or a
// status name ("late_airline").
type Filter struct {
	Airline string `schema:"airline"`
	Status  string `schema:"status"`
	Limit   int    `schema:"limit"`
}

func (f Filter) status() (surety.StatusCode, bool, error) {
	if f.Status == "" {
		return 0, false, nil
	}
	if n, err := strconv.ParseUint(f.Status, 10, 8); err == nil {
		code := surety.StatusCode(n)
		if !code.IsValid() {
			return 0, false, surety.ErrInvalidStatus
		}
		return code, true, nil
	}
	for _, code := range []surety.StatusCode{
		surety.StatusUnknown,
		surety.StatusOnTime,
		surety.StatusLateAirline,
		surety.StatusLateWeather,
		surety.StatusLateTechnical,
		surety.StatusLateOther,
	} {
		if code.String() == f.Status {
			return code, true, nil
		}
	}
	return 0, false, surety.ErrInvalidStatus
}

// Repository stores feed entries.
type Repository interface {
	Upsert(ctx context.Context, flight *Flight) error
	UpdateStatus(ctx context.Context, id surety.FlightID, status surety.StatusCode, at time.Time) error
	Get(ctx context.Context, id surety.FlightID) (*Flight, error)
	List(ctx context.Context, filter Filter) ([]Flight, error)
}
