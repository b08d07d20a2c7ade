package iosched

import "container/list"

// fifoList is one class queue, oldest request at the front. The stored
// list element gives O(1) interior removal, which merge relies on.
type fifoList struct {
	l list.List
}

func (f *fifoList) pending() int { return f.l.Len() }

func (f *fifoList) pushTail(rq *Request) {
	rq.elem = f.l.PushBack(rq)
	rq.fifo = f
}

func (f *fifoList) head() *Request {
	if e := f.l.Front(); e != nil {
		return e.Value.(*Request)
	}
	return nil
}

// remove unlinks rq from whatever position it holds.
func (f *fifoList) remove(rq *Request) {
	f.l.Remove(rq.elem)
	rq.elem = nil
	rq.fifo = nil
}

func (f *fifoList) former(rq *Request) *Request {
	if e := rq.elem.Prev(); e != nil {
		return e.Value.(*Request)
	}
	return nil
}

func (f *fifoList) latter(rq *Request) *Request {
	if e := rq.elem.Next(); e != nil {
		return e.Value.(*Request)
	}
	return nil
}

// moveAfter re-links rq immediately after mark. When mark is then removed,
// rq has taken over mark's slot. The block layer only merges same-class
// requests, but nothing here assumes the two share a queue.
func moveAfter(rq, mark *Request) {
	rq.fifo.l.Remove(rq.elem)
	rq.elem = mark.fifo.l.InsertAfter(rq, mark.elem)
	rq.fifo = mark.fifo
}
