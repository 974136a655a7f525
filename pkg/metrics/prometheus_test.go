// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"blockwatch.cc/flightsurety/pkg/ledger"
	"blockwatch.cc/flightsurety/pkg/surety"
)

func TestObserve(t *testing.T) {
	m := NewMetrics("surety", prometheus.NewRegistry())
	m.Observe(surety.AirlineRegistered{Airline: "a.near"})
	m.Observe(surety.AirlineFunded{Airline: "a.near", Amount: ledger.Units(10)})
	m.Observe(surety.InsurancePurchased{Premium: ledger.Unit.Div(2)})
	m.Observe(surety.InsurancePurchased{Premium: ledger.Unit})
	m.Observe(surety.OracleReport{Status: surety.StatusLateAirline})
	m.Observe(surety.OracleReport{Status: surety.StatusLateAirline})
	m.Observe(surety.OracleReport{Status: surety.StatusOnTime})
	m.Observe(surety.FlightStatusInfo{Status: surety.StatusLateAirline})
	m.Observe(surety.InsureesCredited{Policies: 2, Total: ledger.Units(3)})
	m.Observe(surety.InsuranceClaimed{Amount: ledger.Unit.Mul(3).Div(2)})
	m.SetActive(4)
	m.Fail("credit")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AirlinesRegistered))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.FundingTotal))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.PremiumsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OracleReports.WithLabelValues("late_airline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OracleReports.WithLabelValues("on_time")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlightStatus.WithLabelValues("late_airline")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PoliciesCredited))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PayoutsCredited))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.PayoutsClaimed))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.AirlinesActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("credit")))
}

func TestSeparateRegistries(t *testing.T) {
	// collectors on distinct registries must not clash
	assert.NotPanics(t, func() {
		NewMetrics("surety", prometheus.NewRegistry())
		NewMetrics("surety", prometheus.NewRegistry())
	})
}
