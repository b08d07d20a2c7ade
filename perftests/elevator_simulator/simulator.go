/*
Elevator evaluation framework.
The objective is to observe how a dispatch policy behaves under a synthetic
request stream: per-request wait times, how often expiry preempts batch
order, and how reads and writes share the device. The framework drives one
scheduler on a virtual clock (one dispatch opportunity per tick), emulates
the block layer's admission and adjacent-request merging, and records its
observations through a StatsReceiver so a run can be rendered as JSON.
*/
package elevator_simulator

import (
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iofleet/elevator/common/stats"
	"github.com/iofleet/elevator/iosched"
	"github.com/iofleet/elevator/tests/testhelpers"
)

// Params shape the synthetic request stream.
type Params struct {
	NumRequests int
	Seed        int64

	WriteFrac float64 // fraction of requests that are writes
	AsyncFrac float64 // fraction that are async (split policy only)
	MergeFrac float64 // fraction admitted sector-adjacent to a queued request

	ArrivalEvery time.Duration // mean inter-arrival gap
	Tick         time.Duration // dispatch opportunity interval
}

// DefaultParams is a read-heavy stream that keeps queues shallow enough to
// drain but deep enough to exercise batching and starvation balancing.
func DefaultParams() Params {
	return Params{
		NumRequests:  1000,
		Seed:         0,
		WriteFrac:    0.3,
		AsyncFrac:    0.5,
		MergeFrac:    0.1,
		ArrivalEvery: 500 * time.Microsecond,
		Tick:         time.Millisecond,
	}
}

// Summary is what a run produced. Admitted always equals Dispatched plus
// Merged once the run has drained.
type Summary struct {
	Admitted      int
	Dispatched    int
	Merged        int
	IdleDispatch  int
	Pending       int
	MaxWait       time.Duration
	SimulatedTime time.Duration
}

type arrival struct {
	at    time.Time
	rq    *iosched.Request
	class iosched.Class
}

type Simulator struct {
	params Params
	sched  *iosched.Scheduler
	stat   stats.StatsReceiver
	rng    *rand.Rand

	admitted map[*iosched.Request]time.Time
	// queued requests indexed by the sector one past their span, the
	// block layer's back-merge lookup
	tailAt map[uint64]*iosched.Request
	spans  map[*iosched.Request]uint32
}

func NewSimulator(sched *iosched.Scheduler, params Params, stat stats.StatsReceiver) *Simulator {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	if params.NumRequests <= 0 {
		params.NumRequests = DefaultParams().NumRequests
	}
	if params.ArrivalEvery <= 0 {
		params.ArrivalEvery = DefaultParams().ArrivalEvery
	}
	if params.Tick <= 0 {
		params.Tick = DefaultParams().Tick
	}
	return &Simulator{
		params:   params,
		sched:    sched,
		stat:     stat,
		rng:      rand.New(rand.NewSource(params.Seed)),
		admitted: map[*iosched.Request]time.Time{},
		tailAt:   map[uint64]*iosched.Request{},
		spans:    map[*iosched.Request]uint32{},
	}
}

// Run admits the whole stream, dispatching once per tick, then keeps
// ticking until the queues drain.
func (s *Simulator) Run() Summary {
	arrivals := s.genArrivals()
	start := time.Unix(0, 0)
	now := start

	sum := Summary{}
	next := 0
	for next < len(arrivals) || s.sched.PendingTotal() > 0 {
		for next < len(arrivals) && !arrivals[next].at.After(now) {
			s.admit(arrivals[next], &sum)
			next++
		}

		rq := s.sched.Dispatch(now)
		if rq == nil {
			sum.IdleDispatch++
			s.stat.Counter(stats.SimIdleDispatchCounter).Inc(1)
		} else {
			s.complete(rq, now, &sum)
		}
		now = now.Add(s.params.Tick)
	}

	sum.Pending = s.sched.PendingTotal()
	sum.SimulatedTime = now.Sub(start)
	s.stat.Gauge(stats.SimPendingGauge).Update(int64(sum.Pending))
	log.WithFields(log.Fields{
		"admitted":   sum.Admitted,
		"dispatched": sum.Dispatched,
		"merged":     sum.Merged,
		"idle":       sum.IdleDispatch,
		"maxWait":    sum.MaxWait,
		"simTime":    sum.SimulatedTime,
	}).Info("simulation finished")
	return sum
}

// genArrivals builds the request stream ordered by arrival time. A
// MergeFrac slice of requests is placed sector-adjacent to the previous
// request so admission can exercise back merges.
func (s *Simulator) genArrivals() []arrival {
	arrivals := make([]arrival, 0, s.params.NumRequests)
	at := time.Unix(0, 0)
	var prevEnd uint64
	for i := 0; i < s.params.NumRequests; i++ {
		gap := time.Duration(s.rng.Int63n(int64(2*s.params.ArrivalEvery) + 1))
		at = at.Add(gap)

		dir := iosched.DirRead
		if s.rng.Float64() < s.params.WriteFrac {
			dir = iosched.DirWrite
		}
		sync := s.rng.Float64() >= s.params.AsyncFrac
		class := s.sched.Classify(dir, sync)

		nsect := uint32(s.rng.Intn(256) + 8)
		var sector uint64
		if i > 0 && s.rng.Float64() < s.params.MergeFrac {
			sector = prevEnd
		} else {
			sector = uint64(s.rng.Int63n(1 << 30))
		}
		prevEnd = sector + uint64(nsect)

		rq := &iosched.Request{ID: testhelpers.GenRequestID(), Sector: sector, NSect: nsect}
		arrivals = append(arrivals, arrival{at: at, rq: rq, class: class})
	}
	return arrivals
}

// admit hands one arrival to the scheduler, then does what the block
// layer does: if a queued same-class request ends exactly where this one
// starts, the two are coalesced and the later request is merged away.
func (s *Simulator) admit(a arrival, sum *Summary) {
	s.sched.Add(a.rq, a.class, a.at)
	sum.Admitted++
	s.admitted[a.rq] = a.at
	s.spans[a.rq] = a.rq.NSect

	if prev, ok := s.tailAt[a.rq.Sector]; ok && prev.Queued() && prev.Class() == a.rq.Class() {
		s.sched.Merge(prev, a.rq)
		sum.Merged++
		delete(s.admitted, a.rq)
		delete(s.spans, a.rq)
		delete(s.tailAt, a.rq.Sector)
		s.spans[prev] += a.rq.NSect
		s.tailAt[prev.Sector+uint64(s.spans[prev])] = prev
		return
	}
	s.tailAt[a.rq.Sector+uint64(a.rq.NSect)] = a.rq
}

func (s *Simulator) complete(rq *iosched.Request, now time.Time, sum *Summary) {
	sum.Dispatched++
	wait := now.Sub(s.admitted[rq])
	if wait > sum.MaxWait {
		sum.MaxWait = wait
	}
	s.stat.Latency(stats.SimRequestWaitLatency_ms).Update(wait)
	delete(s.admitted, rq)
	delete(s.tailAt, rq.Sector+uint64(s.spans[rq]))
	delete(s.spans, rq)
}
