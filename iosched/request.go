package iosched

import (
	"container/list"
	"time"
)

// Dir is the data direction of a request.
type Dir int

const (
	DirRead Dir = iota
	DirWrite
)

func (d Dir) String() string {
	if d == DirWrite {
		return "write"
	}
	return "read"
}

func (d Dir) opposite() Dir {
	if d == DirWrite {
		return DirRead
	}
	return DirWrite
}

// Class is the scheduling bucket a request is queued under: direction plus,
// for the split policy, synchronicity. The simple policy folds sync and
// async together and uses only SyncRead and SyncWrite.
type Class int

const (
	SyncRead Class = iota
	SyncWrite
	AsyncRead
	AsyncWrite
	numClasses
)

func (c Class) Dir() Dir {
	if c == SyncWrite || c == AsyncWrite {
		return DirWrite
	}
	return DirRead
}

func (c Class) Sync() bool {
	return c == SyncRead || c == SyncWrite
}

func (c Class) String() string {
	switch c {
	case SyncRead:
		return "syncRead"
	case SyncWrite:
		return "syncWrite"
	case AsyncRead:
		return "asyncRead"
	case AsyncWrite:
		return "asyncWrite"
	}
	return "invalidClass"
}

// Request is one pending I/O operation. The block layer creates it at
// admission and owns it again after dispatch; in between it is linked into
// exactly one class FIFO. The elevator never copies or retains a dispatched
// request.
type Request struct {
	// Payload fields, set by the block layer and never interpreted here.
	ID     string
	Sector uint64
	NSect  uint32

	class    Class
	deadline time.Time
	elem     *list.Element
	fifo     *fifoList
}

// Class returns the bucket the request was admitted under.
func (rq *Request) Class() Class { return rq.class }

// Deadline is the time after which the request is eligible for
// expiry-driven dispatch. Set at admission; a merge may pull it earlier,
// never later.
func (rq *Request) Deadline() time.Time { return rq.deadline }

// Queued reports whether the request is currently linked into a class FIFO.
func (rq *Request) Queued() bool { return rq.elem != nil }
