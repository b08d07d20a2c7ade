package iosched

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"

	"github.com/iofleet/elevator/common/stats"
)

// Policy selects the elevator flavor.
type Policy int

const (
	// PolicySimple: one read and one write FIFO, reads always preferred.
	PolicySimple Policy = iota
	// PolicySplit: sync/async times read/write FIFOs with write
	// starvation balancing.
	PolicySplit
)

func (p Policy) String() string {
	switch p {
	case PolicySimple:
		return "simple"
	case PolicySplit:
		return "split"
	}
	return "invalidPolicy"
}

// Default tunable values per policy. Expiry limits are soft: an expired
// request is preferred at the next expiry check, not aborted.
const (
	DefaultReadExpire      = 250 * time.Millisecond
	DefaultWriteExpire     = 2 * time.Second
	DefaultSimpleFifoBatch = 16

	DefaultSyncReadExpire   = 250 * time.Millisecond
	DefaultSyncWriteExpire  = 2 * time.Second
	DefaultAsyncReadExpire  = 4 * time.Second
	DefaultAsyncWriteExpire = 16 * time.Second
	DefaultSplitFifoBatch   = 8
	DefaultWritesStarved    = 4
)

// Config carries the construction-time defaults for a Scheduler. Start
// from DefaultConfig; a zero expiry is honored as "expired at admission",
// not replaced with a default.
type Config struct {
	Policy        Policy
	Expire        [numClasses]time.Duration
	FifoBatch     int
	WritesStarved int
}

// DefaultConfig returns the shipped defaults for the given policy.
func DefaultConfig(p Policy) Config {
	if p == PolicySimple {
		cfg := Config{Policy: PolicySimple, FifoBatch: DefaultSimpleFifoBatch}
		cfg.Expire[SyncRead] = DefaultReadExpire
		cfg.Expire[SyncWrite] = DefaultWriteExpire
		return cfg
	}
	cfg := Config{
		Policy:        PolicySplit,
		FifoBatch:     DefaultSplitFifoBatch,
		WritesStarved: DefaultWritesStarved,
	}
	cfg.Expire[SyncRead] = DefaultSyncReadExpire
	cfg.Expire[SyncWrite] = DefaultSyncWriteExpire
	cfg.Expire[AsyncRead] = DefaultAsyncReadExpire
	cfg.Expire[AsyncWrite] = DefaultAsyncWriteExpire
	return cfg
}

var (
	simpleClasses = []Class{SyncRead, SyncWrite}
	splitClasses  = []Class{SyncRead, SyncWrite, AsyncRead, AsyncWrite}
)

// Scheduler is one elevator instance, owned by one device queue. The
// owner serializes every call; there is no internal locking and no
// operation blocks.
type Scheduler struct {
	policy Policy

	fifo [numClasses]fifoList

	batching int // sequential dispatches since the last expiry check
	starved  int // reads dispatched since the last write (split policy)

	// tunables
	expire        [numClasses]time.Duration
	fifoBatch     int
	writesStarved int

	tunables *Tunables
	stat     stats.StatsReceiver
}

// New builds a Scheduler with the given defaults. The stats receiver may
// be nil. On error no scheduler state is retained.
func New(cfg Config, stat stats.StatsReceiver) (*Scheduler, error) {
	switch cfg.Policy {
	case PolicySimple, PolicySplit:
	default:
		return nil, errors.Errorf("unknown elevator policy %d", int(cfg.Policy))
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}

	s := &Scheduler{
		policy:        cfg.Policy,
		expire:        cfg.Expire,
		fifoBatch:     cfg.FifoBatch,
		writesStarved: cfg.WritesStarved,
		tunables:      newTunables(),
		stat:          stat,
	}

	if s.policy == PolicySimple {
		s.tunables.addDuration(KeyReadExpire, &s.expire[SyncRead])
		s.tunables.addDuration(KeyWriteExpire, &s.expire[SyncWrite])
	} else {
		s.tunables.addDuration(KeySyncReadExpire, &s.expire[SyncRead])
		s.tunables.addDuration(KeySyncWriteExpire, &s.expire[SyncWrite])
		s.tunables.addDuration(KeyAsyncReadExpire, &s.expire[AsyncRead])
		s.tunables.addDuration(KeyAsyncWriteExpire, &s.expire[AsyncWrite])
	}
	s.tunables.addCount(KeyFifoBatch, &s.fifoBatch)
	if s.policy == PolicySplit {
		s.tunables.addCount(KeyWritesStarved, &s.writesStarved)
	}

	log.WithFields(log.Fields{"policy": s.policy}).Info("elevator initialized")
	return s, nil
}

// Exit tears the scheduler down. Every class queue must have drained: a
// populated queue here means the block layer lost requests, which is a
// lifecycle defect on its side and not recoverable.
func (s *Scheduler) Exit() {
	for _, c := range s.classes() {
		if n := s.fifo[c].pending(); n != 0 {
			log.WithFields(log.Fields{
				"policy":  s.policy,
				"class":   c,
				"pending": n,
			}).Panic("elevator exiting with queued requests")
		}
	}
	log.WithFields(log.Fields{"policy": s.policy}).Info("elevator exited")
}

// Classes lists the class buckets this policy schedules.
func (s *Scheduler) Classes() []Class {
	return append([]Class{}, s.classes()...)
}

func (s *Scheduler) classes() []Class {
	if s.policy == PolicySimple {
		return simpleClasses
	}
	return splitClasses
}

// Classify maps a request's direction and synchronicity onto the class it
// should be admitted under. The simple policy ignores synchronicity.
func (s *Scheduler) Classify(d Dir, sync bool) Class {
	if s.policy == PolicySimple || sync {
		if d == DirWrite {
			return SyncWrite
		}
		return SyncRead
	}
	if d == DirWrite {
		return AsyncWrite
	}
	return AsyncRead
}

// Tunables exposes the runtime configuration surface.
func (s *Scheduler) Tunables() *Tunables { return s.tunables }

// Pending reports the number of queued requests in class c.
func (s *Scheduler) Pending(c Class) int { return s.fifo[c].pending() }

// PendingTotal reports the number of queued requests across all classes.
func (s *Scheduler) PendingTotal() int {
	n := 0
	for _, c := range s.classes() {
		n += s.fifo[c].pending()
	}
	return n
}

// Add admits rq under class: deadline is now plus the class expiry, and
// the request joins the tail of its class FIFO.
func (s *Scheduler) Add(rq *Request, class Class, now time.Time) {
	rq.class = class
	rq.deadline = now.Add(s.expire[class])
	s.fifo[class].pushTail(rq)
	s.stat.Counter(stats.ElevAdmittedCounter).Inc(1)
}

// Merge folds next into rq after the block layer coalesced two adjacent
// requests; next is dropped from its queue. If next carried the tighter
// deadline, rq adopts both the deadline and next's queue slot so the
// combined request still meets the tighter bound.
func (s *Scheduler) Merge(rq, next *Request) {
	if rq.Queued() && next.Queued() {
		if next.deadline.Before(rq.deadline) {
			moveAfter(rq, next)
			rq.deadline = next.deadline
		}
	}
	if next.Queued() {
		next.fifo.remove(next)
	}
	s.stat.Counter(stats.ElevMergedCounter).Inc(1)
}

// Former returns the request queued immediately ahead of rq in its class
// FIFO, nil at the queue head. The block layer uses the adjacency queries
// to decide merge eligibility.
func (s *Scheduler) Former(rq *Request) *Request {
	if !rq.Queued() {
		return nil
	}
	return rq.fifo.former(rq)
}

// Latter returns the request queued immediately behind rq in its class
// FIFO, nil at the queue tail.
func (s *Scheduler) Latter(rq *Request) *Request {
	if !rq.Queued() {
		return nil
	}
	return rq.fifo.latter(rq)
}

// Dispatch picks the next request to hand to the device, or nil when every
// queue is empty. At most one request per call; the request is unlinked
// and ownership returns to the block layer.
func (s *Scheduler) Dispatch(now time.Time) *Request {
	var rq *Request

	// Check for and issue expired requests once the batch allowance is
	// spent.
	if s.batching > s.fifoBatch {
		s.batching = 0
		rq = s.chooseExpired(now)
		if rq != nil {
			s.stat.Counter(stats.ElevExpiredDispatchCounter).Inc(1)
		}
	}

	if rq == nil {
		rq = s.choose()
		if rq == nil {
			return nil
		}
	}

	s.dispatch(rq)
	return rq
}

func (s *Scheduler) dispatch(rq *Request) {
	rq.fifo.remove(rq)
	s.batching++
	if s.policy == PolicySplit {
		if rq.class.Dir() == DirWrite {
			s.starved = 0
		} else {
			s.starved++
		}
	}
	s.stat.Counter(stats.ElevDispatchedCounter).Inc(1)
}

// expiredHead returns the head of class c when its deadline has passed,
// nil otherwise. Only heads are inspected; FIFO order makes the head the
// most overdue request of its class.
func (s *Scheduler) expiredHead(c Class, now time.Time) *Request {
	rq := s.fifo[c].head()
	if rq == nil {
		return nil
	}
	if now.After(rq.deadline) {
		return rq
	}
	return nil
}

func (s *Scheduler) chooseExpired(now time.Time) *Request {
	if s.policy == PolicySimple {
		return s.chooseExpiredSimple(now)
	}
	return s.chooseExpiredSplit(now)
}

// chooseExpiredSimple prefers an expired read over an expired write. When
// both are expired and the write is at least as urgent, nothing is
// returned here; priority selection then serves the read anyway.
func (s *Scheduler) chooseExpiredSimple(now time.Time) *Request {
	read := s.expiredHead(SyncRead, now)
	write := s.expiredHead(SyncWrite, now)

	if read != nil && write != nil {
		if write.deadline.After(read.deadline) {
			return read
		}
	} else if read != nil {
		return read
	} else if write != nil {
		return write
	}
	return nil
}

// chooseExpiredSplit walks the direction pairs: a pair yields its
// earlier-deadline head only when both of its queues have expired heads,
// and an exact tie yields nothing. A matched read pair shadows the write
// arms even when it ties, so a lone expired write behind it waits for
// priority selection. That shadowing is long-standing dispatch behavior
// that tunable defaults were tuned against; it is kept as-is rather than
// rebalanced.
func (s *Scheduler) chooseExpiredSplit(now time.Time) *Request {
	syncRead := s.expiredHead(SyncRead, now)
	syncWrite := s.expiredHead(SyncWrite, now)
	asyncRead := s.expiredHead(AsyncRead, now)
	asyncWrite := s.expiredHead(AsyncWrite, now)

	if asyncRead != nil && syncRead != nil {
		if asyncRead.deadline.After(syncRead.deadline) {
			return syncRead
		} else if syncRead.deadline.After(asyncRead.deadline) {
			return asyncRead
		}
	} else if asyncWrite != nil && syncWrite != nil {
		if asyncWrite.deadline.After(syncWrite.deadline) {
			return syncWrite
		} else if syncWrite.deadline.After(asyncWrite.deadline) {
			return asyncWrite
		}
	} else if syncRead != nil {
		return syncRead
	} else if syncWrite != nil {
		return syncWrite
	} else if asyncRead != nil {
		return asyncRead
	} else if asyncWrite != nil {
		return asyncWrite
	}
	return nil
}

// choose serves priority mode: the head of the first non-empty queue in
// preference order.
func (s *Scheduler) choose() *Request {
	if s.policy == PolicySimple {
		// Reads always win over writes.
		if rq := s.fifo[SyncRead].head(); rq != nil {
			return rq
		}
		return s.fifo[SyncWrite].head()
	}

	dir := DirRead
	if s.starved > s.writesStarved {
		dir = DirWrite
		s.stat.Counter(stats.ElevWriteForcedCounter).Inc(1)
	}
	return s.chooseDir(dir)
}

// chooseDir prefers sync over async within dir, then falls back to the
// opposite direction, still sync first.
func (s *Scheduler) chooseDir(dir Dir) *Request {
	syncC, asyncC := directionClasses(dir)
	if rq := s.fifo[syncC].head(); rq != nil {
		return rq
	}
	if rq := s.fifo[asyncC].head(); rq != nil {
		return rq
	}

	syncC, asyncC = directionClasses(dir.opposite())
	if rq := s.fifo[syncC].head(); rq != nil {
		return rq
	}
	return s.fifo[asyncC].head()
}

func directionClasses(dir Dir) (syncC, asyncC Class) {
	if dir == DirWrite {
		return SyncWrite, AsyncWrite
	}
	return SyncRead, AsyncRead
}
