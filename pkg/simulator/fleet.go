// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package simulator

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/echa/log"
	"github.com/google/uuid"

	"blockwatch.cc/flightsurety/pkg/ledger"
	"blockwatch.cc/flightsurety/pkg/surety"
)

// Minter creates value out of thin air for simulated accounts.
type Minter interface {
	Mint(acc ledger.AccountID, amount ledger.Money)
}

type FleetConfig struct {
	LateProbability float64          // chance an oracle reports late-airline instead of on-time
	Rand            *rand.Rand       // defaults to a time seeded source
	Clock           func() time.Time // defaults to time.Now
}

// Fleet is a set of simulated oracles grouped by the index buckets the
// contract assigned to them.
type Fleet struct {
	mu       sync.Mutex
	contract surety.Contract
	late     float64
	rnd      *rand.Rand
	clock    func() time.Time
	oracles  []ledger.AccountID
	buckets  [surety.INDEX_BUCKETS][]ledger.AccountID
}

func NewFleet(contract surety.Contract, cfg FleetConfig) *Fleet {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Fleet{
		contract: contract,
		late:     cfg.LateProbability,
		rnd:      cfg.Rand,
		clock:    cfg.Clock,
		oracles:  make([]ledger.AccountID, 0),
	}
}

// NewAccountID returns a fresh random account id with the given prefix.
func NewAccountID(prefix string) ledger.AccountID {
	return ledger.AccountID(prefix + "-" + uuid.NewString())
}

// Register mints the registration fee for n new oracles, registers them and
// files each oracle under its assigned indexes.
func (f *Fleet) Register(n int, mint Minter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		id := NewAccountID("oracle")
		mint.Mint(id, surety.ORACLE_REGISTRATION_FEE)
		call := ledger.NewCall(id, f.clock()).WithValue(surety.ORACLE_REGISTRATION_FEE)
		indexes, err := f.contract.RegisterOracle(call)
		if err != nil {
			return fmt.Errorf("registering oracle %d/%d: %w", i+1, n, err)
		}
		f.oracles = append(f.oracles, id)
		for _, idx := range distinct(indexes) {
			f.buckets[idx] = append(f.buckets[idx], id)
		}
		log.Debugf("Oracle %s indexes %v", id, indexes)
	}
	log.Infof("Registered %d oracles", n)
	return nil
}

func distinct(indexes [surety.ORACLE_INDEX_COUNT]uint8) []uint8 {
	out := make([]uint8, 0, len(indexes))
	for _, idx := range indexes {
		dup := false
		for _, v := range out {
			if v == idx {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, idx)
		}
	}
	return out
}

func (f *Fleet) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.oracles)
}

// Bucket lists the oracles holding index.
func (f *Fleet) Bucket(index uint8) []ledger.AccountID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(index) >= len(f.buckets) {
		return nil
	}
	list := make([]ledger.AccountID, len(f.buckets[index]))
	copy(list, f.buckets[index])
	return list
}

// Respond lets every oracle of the requested bucket report a status. Each
// oracle independently reports late-airline with the configured probability
// and on-time otherwise. Returns the number of accepted reports.
func (f *Fleet) Respond(req surety.OracleRequest) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := surety.FlightKey{
		Airline:   req.Airline,
		Code:      req.Code,
		Departure: req.Departure,
	}
	var accepted int
	for _, id := range f.buckets[req.Index%surety.INDEX_BUCKETS] {
		status := surety.StatusOnTime
		if f.rnd.Float64() < f.late {
			status = surety.StatusLateAirline
		}
		err := f.contract.SubmitResponse(ledger.NewCall(id, f.clock()), req.Index, key, status)
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, surety.ErrEpochFinalized):
			// quorum reached, remaining reports would be rejected
			return accepted
		default:
			log.Warnf("Oracle %s report for %s: %v", id, req.Code, err)
		}
	}
	return accepted
}
