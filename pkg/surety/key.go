// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"encoding/json"
	"time"

	cid "github.com/ipfs/go-cid"
	mc "github.com/multiformats/go-multicodec"
	mh "github.com/multiformats/go-multihash"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

// FlightID is the string form of the content id of a FlightKey.
type FlightID string

// FlightKey identifies a flight by airline, flight code and departure time.
type FlightKey struct {
	Airline   ledger.AccountID `json:"airline"`
	Code      string           `json:"flight"`
	Departure int64            `json:"timestamp"`
}

func NewFlightKey(airline ledger.AccountID, code string, departure time.Time) FlightKey {
	return FlightKey{
		Airline:   airline,
		Code:      code,
		Departure: departure.Unix(),
	}
}

var flightPrefix = cid.Prefix{
	Version:  1,
	Codec:    uint64(mc.Raw),
	MhType:   mh.SHA2_256,
	MhLength: -1, // default length
}

// CID returns the content id over the JSON encoding of k.
func (k FlightKey) CID() cid.Cid {
	buf, err := json.Marshal(k)
	if err != nil {
		panic(err)
	}
	c, err := flightPrefix.Sum(buf)
	if err != nil {
		// the prefix is static, sum cannot fail
		panic(err)
	}
	return c
}

func (k FlightKey) ID() FlightID {
	return FlightID(k.CID().String())
}

// ParseFlightID checks that s is a well formed flight id.
func ParseFlightID(s string) (FlightID, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return "", err
	}
	return FlightID(c.String()), nil
}
