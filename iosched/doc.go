// Package iosched implements a deadline-based block I/O request elevator.
//
// The elevator sits between request admission and device submission: the
// owning block layer calls Add when a request is admitted, Merge when two
// adjacent requests coalesce, and Dispatch once per scheduling opportunity.
// Dispatch returns at most one request per call and never blocks.
//
// Two policies share the machinery. PolicySimple keeps one read and one
// write FIFO and always prefers reads. PolicySplit additionally separates
// synchronous from asynchronous requests (four FIFOs) and balances reads
// against writes with a starvation counter. Both batch same-priority
// dispatches and preempt the batch with expired requests once the batch
// allowance is spent.
//
// A Scheduler is not safe for concurrent use. The block layer serializes
// all calls per device queue, so the elevator itself takes no locks; time
// is passed in explicitly rather than read from the system clock.
package iosched
