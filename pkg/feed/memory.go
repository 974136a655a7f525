// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blockwatch.cc/flightsurety/pkg/surety"
)

// MemoryRepository keeps feed entries in insertion order.
type MemoryRepository struct {
	mu      sync.RWMutex
	flights map[surety.FlightID]*Flight
	order   []surety.FlightID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		flights: make(map[surety.FlightID]*Flight),
		order:   make([]surety.FlightID, 0),
	}
}

func (r *MemoryRepository) Upsert(_ context.Context, flight *Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flights[flight.ID]; !ok {
		r.order = append(r.order, flight.ID)
	}
	cp := *flight
	r.flights[flight.ID] = &cp
	return nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id surety.FlightID, status surety.StatusCode, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	f.Status = status
	f.StatusName = status.String()
	f.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id surety.FlightID) (*Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flights[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context, filter Filter) ([]Flight, error) {
	status, byStatus, err := filter.status()
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Flight, 0)
	for _, id := range r.order {
		f := r.flights[id]
		if filter.Airline != "" && string(f.Airline) != filter.Airline {
			continue
		}
		if byStatus && f.Status != status {
			continue
		}
		list = append(list, *f)
		if filter.Limit > 0 && len(list) == filter.Limit {
			break
		}
	}
	return list, nil
}
