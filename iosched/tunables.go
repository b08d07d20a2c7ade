package iosched

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Tunable keys. Which keys a scheduler registers depends on its policy,
// see the table in New.
const (
	KeyReadExpire       = "read_expire"
	KeyWriteExpire      = "write_expire"
	KeySyncReadExpire   = "sync_read_expire"
	KeySyncWriteExpire  = "sync_write_expire"
	KeyAsyncReadExpire  = "async_read_expire"
	KeyAsyncWriteExpire = "async_write_expire"
	KeyFifoBatch        = "fifo_batch"
	KeyWritesStarved    = "writes_starved"
)

// ErrUnknownTunable is returned by Get/Set for a key the scheduler's
// policy does not register.
var ErrUnknownTunable = errors.New("unknown tunable")

// Well-formed values outside [0, maxTunable] are clamped, not rejected.
// Crazy settings (a zero expiry, a zero batch) are ill-advised but safe.
const maxTunable = math.MaxInt32

// knob is one runtime-adjustable parameter. Duration knobs point at a
// time.Duration and are surfaced in integer milliseconds; count knobs are
// plain integers. Exactly one of dur/cnt is set.
type knob struct {
	name string
	dur  *time.Duration
	cnt  *int
}

// Tunables is the runtime configuration surface of one scheduler: a
// name-to-knob registry with a single get/set implementation. Reads and
// writes are assumed externally serialized against scheduler operations.
type Tunables struct {
	byName map[string]*knob
	names  []string
}

func newTunables() *Tunables {
	return &Tunables{byName: map[string]*knob{}}
}

func (t *Tunables) addDuration(name string, d *time.Duration) {
	t.byName[name] = &knob{name: name, dur: d}
	t.names = append(t.names, name)
}

func (t *Tunables) addCount(name string, c *int) {
	t.byName[name] = &knob{name: name, cnt: c}
	t.names = append(t.names, name)
}

// Names lists the registered keys in registration order.
func (t *Tunables) Names() []string {
	return append([]string{}, t.names...)
}

// Get renders the current value as a decimal string, durations in
// milliseconds.
func (t *Tunables) Get(name string) (string, error) {
	k, ok := t.byName[name]
	if !ok {
		return "", errors.Wrap(ErrUnknownTunable, name)
	}
	if k.dur != nil {
		return strconv.FormatInt(int64(*k.dur/time.Millisecond), 10), nil
	}
	return strconv.Itoa(*k.cnt), nil
}

// Set parses a single textual integer, durations in milliseconds.
// Malformed input is rejected and the previous value retained; well-formed
// values are clamped to [0, maxTunable] before being stored.
func (t *Tunables) Set(name, value string) error {
	k, ok := t.byName[name]
	if !ok {
		return errors.Wrap(ErrUnknownTunable, name)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "bad value %q for tunable %s", value, name)
	}
	if v < 0 {
		v = 0
	} else if v > maxTunable {
		v = maxTunable
	}
	if k.dur != nil {
		*k.dur = time.Duration(v) * time.Millisecond
	} else {
		*k.cnt = int(v)
	}
	return nil
}
