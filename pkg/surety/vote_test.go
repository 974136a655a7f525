// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

func TestUnanimousTally(t *testing.T) {
	e := NewTally()
	e.AddVote("A", StatusOnTime)
	e.AddVote("B", StatusOnTime)
	n := e.AddVote("C", StatusOnTime)
	assert.Equal(t, 3, n, "vote count")
	assert.True(t, e.HasQuorum(StatusOnTime, MIN_RESPONSES), "has quorum")
	assert.Equal(t, e.Votes(), []Vote{
		{"A", StatusOnTime},
		{"B", StatusOnTime},
		{"C", StatusOnTime},
	}, "votes in order")
}

func TestSplitTally(t *testing.T) {
	e := NewTally()
	e.AddVote("A", StatusLateAirline)
	e.AddVote("B", StatusOnTime)
	e.AddVote("C", StatusLateAirline)
	e.AddVote("D", StatusOnTime)
	assert.False(t, e.HasQuorum(StatusLateAirline, MIN_RESPONSES), "no quorum yet")
	assert.True(t, e.HasQuorum(StatusOnTime, 2), "on time count")
	assert.False(t, e.HasQuorum(StatusOnTime, MIN_RESPONSES), "no on time quorum")
	assert.Len(t, e.Votes(), 4, "voter count")

	n := e.AddVote("E", StatusLateAirline)
	assert.Equal(t, 3, n, "late count")
	assert.True(t, e.HasQuorum(StatusLateAirline, MIN_RESPONSES), "quorum")
}

func TestTallyRepeatedVote(t *testing.T) {
	e := NewTally()
	e.AddVote("A", StatusLateWeather)
	assert.Equal(t, 1, e.AddVote("A", StatusLateWeather), "same vote is counted once")
	assert.Len(t, e.Votes(), 1, "voter count")

	// a later report moves the vote
	assert.Equal(t, 1, e.AddVote("A", StatusOnTime), "moved vote")
	assert.False(t, e.HasQuorum(StatusLateWeather, 1), "old code lost its vote")
	assert.True(t, e.HasQuorum(StatusOnTime, 1), "vote moved")
	assert.ElementsMatch(t, e.Votes(), []Vote{
		{"A", StatusOnTime},
	}, "votes match")
}

func TestBallot(t *testing.T) {
	b := NewBallot()
	assert.True(t, b.AddVote("A"), "first vote")
	assert.False(t, b.AddVote("A"), "double vote")
	assert.True(t, b.AddVote("B"), "second voter")
	assert.Equal(t, 2, b.NumVotes(), "vote count")
	assert.Equal(t, []ledger.AccountID{"A", "B"}, b.Voters(), "voters in order")
}

func TestApprovalThreshold(t *testing.T) {
	for active, want := range map[int]int{
		0: 1,
		1: 1,
		2: 1,
		3: 2,
		4: 2,
		5: 3,
		6: 3,
		7: 4,
	} {
		assert.Equal(t, want, approvalThreshold(active), "threshold for %d active", active)
	}
}
