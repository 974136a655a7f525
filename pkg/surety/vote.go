// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"blockwatch.cc/flightsurety/pkg/ledger"
)

type Vote struct {
	AccountId ledger.AccountID
	Status    StatusCode
}

// Tally counts oracle reports per status code. Each voter holds at most one
// vote; a later vote moves the voter to the new code.
type Tally struct {
	votes   map[ledger.AccountID]StatusCode
	results map[StatusCode]int
	order   []ledger.AccountID
}

func NewTally() *Tally {
	return &Tally{
		votes:   make(map[ledger.AccountID]StatusCode),
		results: make(map[StatusCode]int),
		order:   make([]ledger.AccountID, 0),
	}
}

// AddVote records voter's report and returns the number of distinct voters
// now backing status.
func (t *Tally) AddVote(voter ledger.AccountID, status StatusCode) int {
	if prev, ok := t.votes[voter]; ok {
		if prev == status {
			return t.results[status]
		}
		t.results[prev]--
		if t.results[prev] == 0 {
			delete(t.results, prev)
		}
	} else {
		t.order = append(t.order, voter)
	}
	t.votes[voter] = status
	t.results[status]++
	return t.results[status]
}

// HasQuorum reports whether status is backed by at least n voters.
func (t Tally) HasQuorum(status StatusCode, n int) bool {
	return t.results[status] >= n
}

// Votes returns the current vote of every voter in first-vote order.
func (t Tally) Votes() []Vote {
	votes := make([]Vote, 0, len(t.order))
	for _, acc := range t.order {
		votes = append(votes, Vote{
			AccountId: acc,
			Status:    t.votes[acc],
		})
	}
	return votes
}

// Ballot collects distinct approval votes for an airline.
type Ballot struct {
	voters map[ledger.AccountID]struct{}
	order  []ledger.AccountID
}

func NewBallot() *Ballot {
	return &Ballot{
		voters: make(map[ledger.AccountID]struct{}),
		order:  make([]ledger.AccountID, 0),
	}
}

// AddVote returns false when voter has already voted.
func (b *Ballot) AddVote(voter ledger.AccountID) bool {
	if _, ok := b.voters[voter]; ok {
		return false
	}
	b.voters[voter] = struct{}{}
	b.order = append(b.order, voter)
	return true
}

func (b Ballot) NumVotes() int {
	return len(b.order)
}

func (b Ballot) Voters() []ledger.AccountID {
	voters := make([]ledger.AccountID, len(b.order))
	copy(voters, b.order)
	return voters
}

// approvalThreshold is half of the active airlines rounded up, at least one.
func approvalThreshold(active int) int {
	n := (active + 1) / 2
	if n < 1 {
		n = 1
	}
	return n
}
