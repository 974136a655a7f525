// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"blockwatch.cc/flightsurety/pkg/ledger"
)

const (
	MIN_AIRLINE_FUNDING     = 10 * ledger.Unit
	ORACLE_REGISTRATION_FEE = 1 * ledger.Unit
	MAX_PREMIUM             = 1 * ledger.Unit
	BOOTSTRAP_AIRLINES      = 4  // registrations below this count skip voting
	ORACLE_INDEX_COUNT      = 3  // indexes per oracle
	INDEX_BUCKETS           = 10 // index space 0..9
	MIN_RESPONSES           = 3  // matching reports needed to finalize
	PAYOUT_NUM              = 3  // payout = premium * 3 / 2
	PAYOUT_DEN              = 2
)

type StatusCode uint8

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

func (s StatusCode) IsValid() bool {
	switch s {
	case StatusUnknown, StatusOnTime, StatusLateAirline,
		StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	}
	return false
}

func (s StatusCode) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusOnTime:
		return "on_time"
	case StatusLateAirline:
		return "late_airline"
	case StatusLateWeather:
		return "late_weather"
	case StatusLateTechnical:
		return "late_technical"
	case StatusLateOther:
		return "late_other"
	}
	return "invalid"
}

type Airline struct {
	ID       ledger.AccountID
	Name     string
	Seq      int          // sequential registration id, genesis airline is 1
	Funded   bool         // paid at least MIN_AIRLINE_FUNDING
	Approved bool         // auto-approved at bootstrap or voted in
	Pool     ledger.Money // funding plus premiums minus credited payouts
	votes    *Ballot
}

// Active is derived so that active == funded && approved always holds.
func (a *Airline) Active() bool {
	return a.Funded && a.Approved
}

type AirlineInfo struct {
	ID       ledger.AccountID
	Name     string
	Seq      int
	Funded   bool
	Approved bool
	Active   bool
	Votes    int
	Pool     ledger.Money
}

type Flight struct {
	Key        FlightKey
	ID         FlightID
	Status     StatusCode
	UpdatedAt  int64  // unix seconds of the last status change
	Credited   bool   // insurees were credited once, never again
	Requests   uint64 // number of status request epochs opened
	Settled    uint64 // epoch that applied the current status, 0 if none
	passengers []ledger.AccountID
}

type FlightInfo struct {
	ID        FlightID
	Airline   ledger.AccountID
	Code      string
	Status    StatusCode
	Departure int64
	UpdatedAt int64
	Credited  bool
}

type Oracle struct {
	ID      ledger.AccountID
	Indexes [ORACLE_INDEX_COUNT]uint8
}

func (o *Oracle) HasIndex(idx uint8) bool {
	for _, v := range o.Indexes {
		if v == idx {
			return true
		}
	}
	return false
}

type requestKey struct {
	Index  uint8
	Flight FlightID
}

// Request is one oracle status request epoch for a flight and index bucket.
type Request struct {
	Index     uint8
	Flight    FlightID
	Seq       uint64 // epoch number for this flight, starts at 1
	Requester ledger.AccountID
	Finalized bool
	Status    StatusCode // finalized status
	tally     *Tally
}

type Policy struct {
	Flight    FlightID
	Passenger ledger.AccountID
	Premium   ledger.Money
	Claimable ledger.Money
	Claimed   bool
}

type PolicyInfo struct {
	Passenger ledger.AccountID
	Premium   ledger.Money
	Claimable ledger.Money
	Claimed   bool
}

// Shared contract state for airlines, flights, oracles and policies
type ContractState struct {
	// contract owner (test-mode status override, operational switch)
	Owner ledger.AccountID

	// account holding all funds, fees and premiums in the bank
	Address ledger.AccountID

	Operational bool

	// airline registry
	NextAirlineSeq int
	Airlines       map[ledger.AccountID]*Airline
	AirlineOrder   []ledger.AccountID

	// flight registry
	Flights     map[FlightID]*Flight
	FlightOrder []FlightID

	// oracle quorum
	Oracles  map[ledger.AccountID]*Oracle
	Requests map[requestKey]*Request

	// insurance ledger
	Policies map[FlightID]map[ledger.AccountID]*Policy
}

type Contract interface {
	// Registers a new airline, auto-approved during bootstrap
	// Called by: active airline
	RegisterAirline(call ledger.Call, id ledger.AccountID, name string) error

	// Pays airline funding into the airline's pool
	// Called by: airline
	Fund(call ledger.Call) error

	// Casts an approval vote for a pending airline
	// Called by: active airline
	ApproveAirline(call ledger.Call, candidate ledger.AccountID) error

	// Registers a flight for the calling airline
	// Called by: active airline
	RegisterFlight(call ledger.Call, key FlightKey) (FlightID, error)

	// Views a flight
	// Called by: anyone
	GetFlightInfo(key FlightKey) (FlightInfo, error)

	// Registers an oracle and assigns its indexes
	// Called by: oracle
	RegisterOracle(call ledger.Call) ([ORACLE_INDEX_COUNT]uint8, error)

	// Opens a new status request epoch and emits an OracleRequest
	// Called by: owner, active airline or insured passenger
	RequestStatus(call ledger.Call, key FlightKey) (uint8, error)

	// Reports a flight status for an open request
	// Called by: oracle
	SubmitResponse(call ledger.Call, index uint8, key FlightKey, status StatusCode) error

	// Buys or tops up insurance for a flight
	// Called by: passenger
	BuyInsurance(call ledger.Call, key FlightKey) error

	// Views a passenger's policy
	// Called by: anyone
	FetchInsuranceInfo(key FlightKey, passenger ledger.AccountID) (PolicyInfo, error)

	// Credits all insurees of a late flight from the airline pool
	// Called by: flight airline
	CreditInsurees(call ledger.Call, key FlightKey) error

	// Pays out a credited policy
	// Called by: passenger
	ClaimInsurance(call ledger.Call, key FlightKey, passenger ledger.AccountID) error
}
