// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"blockwatch.cc/flightsurety/pkg/ledger"
	"blockwatch.cc/flightsurety/pkg/surety"
)

// Metrics holds all prometheus collectors fed from contract events.
type Metrics struct {
	AirlinesRegistered prometheus.Counter
	AirlinesActive     prometheus.Gauge
	FundingTotal       prometheus.Counter
	FlightsRegistered  prometheus.Counter
	OraclesRegistered  prometheus.Counter
	StatusRequests     prometheus.Counter
	OracleReports      *prometheus.CounterVec
	FlightStatus       *prometheus.CounterVec
	PremiumsTotal      prometheus.Counter
	PoliciesCredited   prometheus.Counter
	PayoutsCredited    prometheus.Counter
	PayoutsClaimed     prometheus.Counter
	Errors             *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. A nil reg uses the default
// prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		AirlinesRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "airlines_registered_total",
			Help:      "The total number of registered airlines",
		}),
		AirlinesActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "airlines_active",
			Help:      "The number of funded and approved airlines",
		}),
		FundingTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "airline_funding_units_total",
			Help:      "Airline funding paid into the contract in whole units",
		}),
		FlightsRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_registered_total",
			Help:      "The total number of registered flights",
		}),
		OraclesRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracles_registered_total",
			Help:      "The total number of registered oracles",
		}),
		StatusRequests: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_requests_total",
			Help:      "The total number of opened oracle request epochs",
		}),
		OracleReports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_reports_total",
			Help:      "Accepted oracle reports by status",
		}, []string{"status"}),
		FlightStatus: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flight_status_total",
			Help:      "Finalized flight statuses",
		}, []string{"status"}),
		PremiumsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "premiums_units_total",
			Help:      "Insurance premiums paid in whole units",
		}),
		PoliciesCredited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policies_credited_total",
			Help:      "The total number of credited policies",
		}),
		PayoutsCredited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payouts_credited_units_total",
			Help:      "Payouts credited to passengers in whole units",
		}),
		PayoutsClaimed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payouts_claimed_units_total",
			Help:      "Payouts withdrawn by passengers in whole units",
		}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}

// Observe updates collectors from a single contract event.
func (m *Metrics) Observe(ev surety.Event) {
	switch e := ev.(type) {
	case surety.AirlineRegistered:
		m.AirlinesRegistered.Inc()
	case surety.AirlineFunded:
		m.FundingTotal.Add(units(e.Amount))
	case surety.FlightRegistered:
		m.FlightsRegistered.Inc()
	case surety.OracleRegistered:
		m.OraclesRegistered.Inc()
	case surety.OracleRequest:
		m.StatusRequests.Inc()
	case surety.OracleReport:
		m.OracleReports.WithLabelValues(e.Status.String()).Inc()
	case surety.FlightStatusInfo:
		m.FlightStatus.WithLabelValues(e.Status.String()).Inc()
	case surety.InsurancePurchased:
		m.PremiumsTotal.Add(units(e.Premium))
	case surety.InsureesCredited:
		m.PoliciesCredited.Add(float64(e.Policies))
		m.PayoutsCredited.Add(units(e.Total))
	case surety.InsuranceClaimed:
		m.PayoutsClaimed.Add(units(e.Amount))
	}
}

// SetActive records the current number of active airlines.
func (m *Metrics) SetActive(n int) {
	m.AirlinesActive.Set(float64(n))
}

// Fail counts a failed operation.
func (m *Metrics) Fail(op string) {
	m.Errors.WithLabelValues(op).Inc()
}

func units(m ledger.Money) float64 {
	return float64(m) / float64(ledger.Unit)
}
