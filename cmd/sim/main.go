// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/echa/log"

	"blockwatch.cc/flightsurety/pkg/feed"
	"blockwatch.cc/flightsurety/pkg/ledger"
	"blockwatch.cc/flightsurety/pkg/simulator"
	"blockwatch.cc/flightsurety/pkg/surety"
)

var (
	nodeEndpoint string
	oracleCount  int
	lateProb     float64
	passengers   int
	premiumStr   string
	maxRounds    int
	seed         int64
	flags        = flag.NewFlagSet("sim", flag.ContinueOnError)
)

const (
	OWNER = "owner.surety"
)

var airlines = []ledger.AccountID{
	"alpha.air",
	"bravo.air",
	"charlie.air",
	"delta.air",
	"echo.air",
}

func init() {
	flags.Usage = func() {}
	flags.StringVar(&nodeEndpoint, "node", "", "node HTTP endpoint to list flights from, e.g. http://localhost:3000")
	flags.IntVar(&oracleCount, "oracles", 30, "number of simulated oracles")
	flags.Float64Var(&lateProb, "late", 0.5, "oracle late-airline probability")
	flags.IntVar(&passengers, "passengers", 3, "number of insured passengers")
	flags.StringVar(&premiumStr, "premium", "1", "premium per passenger in units")
	flags.IntVar(&maxRounds, "rounds", 10, "max status requests until the flight resolves")
	flags.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for oracle answers")
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	err := flags.Parse(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			fmt.Printf("Usage: %s [flags]\n", os.Args[0])
			fmt.Println("\nFlags")
			flags.PrintDefaults()
			return nil
		}
		return err
	}

	if nodeEndpoint != "" {
		return listFlights(nodeEndpoint)
	}

	premium, err := ledger.ParseMoney(premiumStr)
	if err != nil {
		return err
	}
	ctx := context.Background()
	now := time.Now().UTC()

	bank := ledger.NewAccounts()
	contract, err := surety.New(surety.Config{
		Owner:            OWNER,
		FirstAirline:     airlines[0],
		FirstAirlineName: "Alpha Air",
		Bank:             bank,
	})
	if err != nil {
		return err
	}
	fleet := simulator.NewFleet(contract, simulator.FleetConfig{
		LateProbability: lateProb,
		Rand:            rand.New(rand.NewSource(seed)),
	})
	dispatcher := simulator.NewDispatcher(simulator.DispatcherConfig{
		Contract: contract,
		Outbox:   contract.Events(),
		Fleet:    fleet,
		Feed:     feed.NewMemoryRepository(),
	})

	// airlines: bootstrap four, vote in the fifth
	for _, id := range airlines {
		bank.Mint(id, surety.MIN_AIRLINE_FUNDING)
	}
	call := func(id ledger.AccountID) ledger.Call { return ledger.NewCall(id, now) }
	for i, id := range airlines {
		if i > 0 {
			if err := contract.RegisterAirline(call(airlines[0]), id, string(id)); err != nil {
				return err
			}
		}
		if err := contract.Fund(call(id).WithValue(surety.MIN_AIRLINE_FUNDING)); err != nil {
			return err
		}
	}
	for _, voter := range airlines[:4] {
		if err := contract.ApproveAirline(call(voter), airlines[4]); err != nil {
			return err
		}
	}
	log.Infof("Active airlines: %d", contract.NumActive())

	// flight and insured passengers
	key := surety.NewFlightKey(airlines[4], fmt.Sprintf("ECH%d", 10000+rand.Intn(90000)), now.Add(3*time.Hour))
	if _, err := contract.RegisterFlight(call(airlines[4]), key); err != nil {
		return err
	}
	insured := make([]ledger.AccountID, passengers)
	for i := range insured {
		insured[i] = simulator.NewAccountID("passenger")
		bank.Mint(insured[i], premium)
		if err := contract.BuyInsurance(call(insured[i]).WithValue(premium), key); err != nil {
			return err
		}
	}

	if err := fleet.Register(oracleCount, bank); err != nil {
		return err
	}
	dispatcher.Flush(ctx)

	// keep asking until a quorum resolves the flight
	var info surety.FlightInfo
	for round := 1; round <= maxRounds; round++ {
		index, err := contract.RequestStatus(call(OWNER), key)
		if err != nil {
			return err
		}
		dispatcher.Flush(ctx)
		if info, err = contract.GetFlightInfo(key); err != nil {
			return err
		}
		log.Infof("Round %d index %d (%d oracles): status %s", round, index, len(fleet.Bucket(index)), info.Status)
		if info.Status != surety.StatusUnknown {
			break
		}
	}
	if info.Status == surety.StatusUnknown {
		log.Warnf("Flight %s unresolved after %d rounds", key.Code, maxRounds)
		return nil
	}

	for _, p := range insured {
		err := contract.ClaimInsurance(call(p), key, p)
		if err != nil {
			log.Infof("Passenger %s: %v", p, err)
			continue
		}
		log.Infof("Passenger %s paid %s, balance now %s", p, premium, bank.Balance(p))
	}
	dispatcher.Flush(ctx)

	pool, err := contract.Pool(key.Airline)
	if err != nil {
		return err
	}
	log.Infof("Flight %s status %s credited=%t, airline pool %s", key.Code, info.Status, info.Credited, pool)
	return nil
}

// listFlights prints the flight feed of a running node.
func listFlights(endpoint string) error {
	resp, err := http.Get(endpoint + "/flights")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned %s", resp.Status)
	}

	var res struct {
		Result []feed.Flight `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return err
	}
	for _, f := range res.Result {
		log.Infof("%s %-10s %s departs %s status %s",
			f.Airline, f.Code, f.ID, time.Unix(f.Departure, 0).UTC().Format(time.RFC3339), f.StatusName)
	}
	log.Infof("%d flights", len(res.Result))
	return nil
}
