// +build property_test

package iosched

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/iofleet/elevator/common/stats"
)

func Test_FIFOOrderWithinClass_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("dispatch preserves admission order within a class", prop.ForAll(
		func(w *Workload) bool {
			s, err := New(DefaultConfig(w.Policy), nil)
			if err != nil {
				return false
			}
			admitted := map[Class][]*Request{}
			for _, c := range w.Classes {
				rq := &Request{}
				s.Add(rq, c, t0)
				admitted[c] = append(admitted[c], rq)
			}

			got := map[Class][]*Request{}
			for {
				rq := s.Dispatch(t0.Add(time.Millisecond))
				if rq == nil {
					break
				}
				got[rq.Class()] = append(got[rq.Class()], rq)
			}

			for c, rqs := range admitted {
				if len(got[c]) != len(rqs) {
					return false
				}
				for i := range rqs {
					if got[c][i] != rqs[i] {
						return false
					}
				}
			}
			return true
		},
		GopterGenWorkload(),
	))

	properties.TestingRun(t)
}

func Test_MergeDeadlineIsMin_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("survivor deadline is the min of the pair", prop.ForAll(
		func(e1, e2 int) bool {
			cfg := DefaultConfig(PolicySimple)
			cfg.Expire[SyncRead] = time.Duration(e1) * time.Millisecond
			s, err := New(cfg, nil)
			if err != nil {
				return false
			}
			a := &Request{}
			s.Add(a, SyncRead, t0)
			if err := s.Tunables().Set(KeyReadExpire, strconv.Itoa(e2)); err != nil {
				return false
			}
			b := &Request{}
			s.Add(b, SyncRead, t0)

			s.Merge(a, b)

			min := e1
			if e2 < e1 {
				min = e2
			}
			return a.Deadline().Equal(t0.Add(time.Duration(min)*time.Millisecond)) && !b.Queued()
		},
		gen.IntRange(0, 100000),
		gen.IntRange(0, 100000),
	))

	properties.TestingRun(t)
}

func Test_StarvationBound_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// The starvation counter must exceed writes_starved before a write is
	// forced, so runs of writes_starved+1 reads are legal; anything longer
	// while a write is queued is not. Expiries are kept out of reach so
	// only priority mode runs.
	properties.Property("reads cannot starve queued writes past the bound", prop.ForAll(
		func(w *Workload) bool {
			cfg := DefaultConfig(PolicySplit)
			for _, c := range splitClasses {
				cfg.Expire[c] = time.Hour
			}
			s, err := New(cfg, nil)
			if err != nil {
				return false
			}
			pendingWrites := 0
			for _, c := range w.Classes {
				s.Add(&Request{}, c, t0)
				if c.Dir() == DirWrite {
					pendingWrites++
				}
			}

			readRun := 0
			now := t0.Add(time.Millisecond)
			for {
				rq := s.Dispatch(now)
				if rq == nil {
					return true
				}
				if rq.Class().Dir() == DirWrite {
					pendingWrites--
					readRun = 0
					continue
				}
				readRun++
				if pendingWrites > 0 && readRun > cfg.WritesStarved+1 {
					return false
				}
			}
		},
		GopterGenSplitWorkload(),
	))

	properties.TestingRun(t)
}

func Test_BatchBound_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// With every request expired, each expiry check dispatches, so the
	// check cadence is directly observable: the first once the batch
	// allowance is spent, then one per fifo_batch+1 dispatches.
	properties.Property("expiry checks fire once per batch allowance", prop.ForAll(
		func(fifoBatch, n int) bool {
			stat := stats.DefaultStatsReceiver()
			cfg := DefaultConfig(PolicySimple)
			cfg.FifoBatch = fifoBatch
			cfg.Expire[SyncRead] = 0
			s, err := New(cfg, stat)
			if err != nil {
				return false
			}
			for i := 0; i < n; i++ {
				s.Add(&Request{}, SyncRead, t0)
			}
			dispatched := 0
			now := t0.Add(time.Millisecond)
			for s.Dispatch(now) != nil {
				dispatched++
			}
			if dispatched != n {
				return false
			}

			want := int64(0)
			if n >= fifoBatch+2 {
				want = int64((n-(fifoBatch+2))/(fifoBatch+1) + 1)
			}
			return stat.Counter(stats.ElevExpiredDispatchCounter).Count() == want
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}

func Test_Conservation_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// A request is never in two queues and never lost: everything admitted
	// is eventually dispatched exactly once or merged away.
	properties.Property("admitted = dispatched + merged", prop.ForAll(
		func(w *Workload, seed int64) bool {
			s, err := New(DefaultConfig(w.Policy), nil)
			if err != nil {
				return false
			}
			rng := rand.New(rand.NewSource(seed))
			queued := []*Request{}
			dispatched := map[*Request]bool{}
			merged := 0
			now := t0

			for _, c := range w.Classes {
				rq := &Request{}
				s.Add(rq, c, now)
				queued = append(queued, rq)
				now = now.Add(time.Duration(rng.Intn(5)) * time.Millisecond)

				switch rng.Intn(3) {
				case 0: // merge two queued same-class requests
					if a, b := pickSameClassPair(queued, rng); a != nil {
						s.Merge(a, b)
						merged++
						queued = without(queued, b)
					}
				case 1: // dispatch opportunity
					if got := s.Dispatch(now); got != nil {
						if dispatched[got] || got.Queued() {
							return false
						}
						dispatched[got] = true
						queued = without(queued, got)
					}
				}
			}

			for {
				got := s.Dispatch(now)
				if got == nil {
					break
				}
				if dispatched[got] || got.Queued() {
					return false
				}
				dispatched[got] = true
				queued = without(queued, got)
			}

			if len(queued) != 0 || s.PendingTotal() != 0 {
				return false
			}
			return len(w.Classes) == len(dispatched)+merged
		},
		GopterGenWorkload(),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func pickSameClassPair(queued []*Request, rng *rand.Rand) (*Request, *Request) {
	if len(queued) < 2 {
		return nil, nil
	}
	i := rng.Intn(len(queued))
	for j := range queued {
		if j != i && queued[j].Class() == queued[i].Class() {
			return queued[i], queued[j]
		}
	}
	return nil, nil
}

func without(queued []*Request, rq *Request) []*Request {
	out := queued[:0]
	for _, q := range queued {
		if q != rq {
			out = append(out, q)
		}
	}
	return out
}
