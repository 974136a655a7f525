// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	mh "github.com/multiformats/go-multihash"

	"blockwatch.cc/flightsurety/pkg/ledger"
)

// IndexSource draws bucket indexes in 0..INDEX_BUCKETS-1 for oracle
// registration and status requests.
type IndexSource interface {
	NextIndex(caller ledger.AccountID) uint8
}

// EntropySource derives indexes from a secret random seed, a monotonic
// nonce and the caller id. Callers cannot predict the seed, so they cannot
// choose their buckets before paying.
type EntropySource struct {
	mu    sync.Mutex
	seed  [32]byte
	nonce uint64
}

func NewEntropySource() (*EntropySource, error) {
	s := &EntropySource{}
	if _, err := rand.Read(s.seed[:]); err != nil {
		return nil, fmt.Errorf("reading index seed: %w", err)
	}
	return s, nil
}

func (s *EntropySource) NextIndex(caller ledger.AccountID) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, 0, len(s.seed)+8+len(caller))
	buf = append(buf, s.seed[:]...)
	buf = binary.BigEndian.AppendUint64(buf, s.nonce)
	buf = append(buf, caller...)
	s.nonce++

	sum, err := mh.Sum(buf, mh.SHA2_256, -1)
	if err != nil {
		panic(err)
	}
	dec, err := mh.Decode(sum)
	if err != nil {
		panic(err)
	}
	return dec.Digest[0] % INDEX_BUCKETS
}

// SequenceSource replays a fixed sequence of indexes, wrapping around.
type SequenceSource struct {
	mu  sync.Mutex
	seq []uint8
	pos int
}

func NewSequenceSource(seq ...uint8) *SequenceSource {
	if len(seq) == 0 {
		seq = []uint8{0}
	}
	return &SequenceSource{seq: seq}
}

func (s *SequenceSource) NextIndex(ledger.AccountID) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.seq[s.pos%len(s.seq)] % INDEX_BUCKETS
	s.pos++
	return idx
}
