// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/echa/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blockwatch.cc/flightsurety/pkg/config"
	"blockwatch.cc/flightsurety/pkg/feed"
	"blockwatch.cc/flightsurety/pkg/ledger"
	"blockwatch.cc/flightsurety/pkg/metrics"
	"blockwatch.cc/flightsurety/pkg/simulator"
	"blockwatch.cc/flightsurety/pkg/surety"
)

var (
	envFile     string
	port        string
	oracleCount int
	lateProb    float64
	numFlights  int
	flags       = flag.NewFlagSet("node", flag.ContinueOnError)
)

// flight code prefixes for seeded flights
var prefixes = []string{"AAL", "SIA", "KKK", "GGG", "FFF", "SSS", "CC5"}

func init() {
	flags.Usage = func() {}
	flags.StringVar(&envFile, "env", ".env", "environment file")
	flags.StringVar(&port, "port", "", "HTTP server port (overrides PORT)")
	flags.IntVar(&oracleCount, "oracles", -1, "number of simulated oracles (overrides ORACLE_COUNT)")
	flags.Float64Var(&lateProb, "late", -1, "oracle late-airline probability (overrides LATE_PROBABILITY)")
	flags.IntVar(&numFlights, "flights", len(prefixes), "number of flights to seed for the first airline")
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

	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Port = port
	}
	if oracleCount >= 0 {
		cfg.OracleCount = oracleCount
	}
	if lateProb >= 0 {
		cfg.LateProbability = lateProb
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// contract and its bank
	bank := ledger.NewAccounts()
	contract, err := surety.New(surety.Config{
		Owner:            ledger.AccountID(cfg.Owner),
		FirstAirline:     ledger.AccountID(cfg.FirstAirline),
		FirstAirlineName: cfg.FirstAirlineName,
		Bank:             bank,
	})
	if err != nil {
		return err
	}

	// flight feed storage
	repo, closeFeed, err := openFeed(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFeed()

	fleet := simulator.NewFleet(contract, simulator.FleetConfig{
		LateProbability: cfg.LateProbability,
	})
	dispatcher := simulator.NewDispatcher(simulator.DispatcherConfig{
		Contract: contract,
		Outbox:   contract.Events(),
		Fleet:    fleet,
		Feed:     repo,
		Metrics:  metrics.NewMetrics("flightsurety", nil),
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := dispatcher.Run(ctx); err != nil {
			log.Errorf("Dispatcher: %v", err)
		}
	}()

	if err := seed(contract, bank, cfg.FirstAirline, numFlights); err != nil {
		return err
	}
	if err := fleet.Register(cfg.OracleCount, bank); err != nil {
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Poll(ctx, contract.Owner(), cfg.StatusPollInterval)
	}()

	mux := http.NewServeMux()
	feed.NewServer(repo).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		if !contract.IsOperational() {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		w.Write([]byte(http.StatusText(status)))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		log.Infof("Listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Infof("Shutting down")
	case err = <-errc:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown: %v", err)
	}
	wg.Wait()
	return err
}

func openFeed(ctx context.Context, cfg *config.Config) (feed.Repository, func(), error) {
	if cfg.FeedBackend != config.BACKEND_MONGO {
		return feed.NewMemoryRepository(), func() {}, nil
	}
	log.Infof("Connecting to MongoDB")
	client, err := feed.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Errorf("MongoDB disconnect: %v", err)
		}
	}
	repo, err := feed.NewMongoRepository(ctx, client.Database(cfg.MongoDB))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return repo, closeFn, nil
}

// seed funds the first airline and registers flights departing three hours
// from the current hour.
func seed(contract *surety.Surety, bank *ledger.Accounts, airline string, n int) error {
	id := ledger.AccountID(airline)
	now := time.Now().UTC()
	bank.Mint(id, surety.MIN_AIRLINE_FUNDING)
	if err := contract.Fund(ledger.NewCall(id, now).WithValue(surety.MIN_AIRLINE_FUNDING)); err != nil {
		return fmt.Errorf("funding first airline: %w", err)
	}

	departure := now.Truncate(time.Hour).Add(3 * time.Hour)
	for i := 0; i < n; i++ {
		code := fmt.Sprintf("%s%d", prefixes[i%len(prefixes)], 10000+rand.Intn(90000))
		key := surety.NewFlightKey(id, code, departure)
		if _, err := contract.RegisterFlight(ledger.NewCall(id, now), key); err != nil {
			log.Warnf("Seeding flight %s: %v", code, err)
		}
	}
	return nil
}
