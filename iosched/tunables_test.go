package iosched

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

func getOrFail(t *testing.T, tun *Tunables, name string) string {
	v, err := tun.Get(name)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", name, err)
	}
	return v
}

func Test_Tunables_SimpleDefaults(t *testing.T) {
	s := makeSched(t, DefaultConfig(PolicySimple), nil)
	tun := s.Tunables()

	cases := map[string]string{
		KeyReadExpire:  "250",
		KeyWriteExpire: "2000",
		KeyFifoBatch:   "16",
	}
	for name, want := range cases {
		if got := getOrFail(t, tun, name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func Test_Tunables_SplitDefaults(t *testing.T) {
	s := makeSched(t, DefaultConfig(PolicySplit), nil)
	tun := s.Tunables()

	cases := map[string]string{
		KeySyncReadExpire:   "250",
		KeySyncWriteExpire:  "2000",
		KeyAsyncReadExpire:  "4000",
		KeyAsyncWriteExpire: "16000",
		KeyFifoBatch:        "8",
		KeyWritesStarved:    "4",
	}
	for name, want := range cases {
		if got := getOrFail(t, tun, name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func Test_Tunables_PolicyScopesKeys(t *testing.T) {
	s := makeSched(t, DefaultConfig(PolicySimple), nil)
	if err := s.Tunables().Set(KeyWritesStarved, "2"); errors.Cause(err) != ErrUnknownTunable {
		t.Errorf("Expected ErrUnknownTunable for a split-only key, got %v", err)
	}
	if _, err := s.Tunables().Get(KeySyncReadExpire); errors.Cause(err) != ErrUnknownTunable {
		t.Errorf("Expected ErrUnknownTunable for a split-only key, got %v", err)
	}
}

func Test_Tunables_MalformedValueRejected(t *testing.T) {
	s := makeSched(t, DefaultConfig(PolicySimple), nil)
	tun := s.Tunables()

	for _, bad := range []string{"", "abc", "12x", "1.5", "0x10"} {
		if err := tun.Set(KeyReadExpire, bad); err == nil {
			t.Errorf("Expected a parse error for %q", bad)
		}
	}
	// A failed write leaves the previous value in place.
	if got := getOrFail(t, tun, KeyReadExpire); got != "250" {
		t.Errorf("Expected the previous value retained, got %s", got)
	}
}

func Test_Tunables_ClampRange(t *testing.T) {
	s := makeSched(t, DefaultConfig(PolicySplit), nil)
	tun := s.Tunables()

	if err := tun.Set(KeyFifoBatch, "-5"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := getOrFail(t, tun, KeyFifoBatch); got != "0" {
		t.Errorf("Expected negative input clamped to 0, got %s", got)
	}

	if err := tun.Set(KeyWritesStarved, "99999999999999"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := getOrFail(t, tun, KeyWritesStarved); got != "2147483647" {
		t.Errorf("Expected oversized input clamped, got %s", got)
	}
}

func Test_Tunables_MillisecondConversionSymmetric(t *testing.T) {
	s := makeSched(t, DefaultConfig(PolicySimple), nil)
	tun := s.Tunables()

	if err := tun.Set(KeyWriteExpire, "1500"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := getOrFail(t, tun, KeyWriteExpire); got != "1500" {
		t.Errorf("Expected a round-tripped 1500, got %s", got)
	}

	// The stored duration drives deadlines directly.
	rq := &Request{}
	s.Add(rq, SyncWrite, t0)
	if !rq.Deadline().Equal(t0.Add(1500 * time.Millisecond)) {
		t.Errorf("Expected deadline at admission+1500ms, got %v", rq.Deadline())
	}
}

func Test_Tunables_NamesListsPolicySurface(t *testing.T) {
	s := makeSched(t, DefaultConfig(PolicySplit), nil)
	names := s.Tunables().Names()
	want := []string{
		KeySyncReadExpire, KeySyncWriteExpire, KeyAsyncReadExpire,
		KeyAsyncWriteExpire, KeyFifoBatch, KeyWritesStarved,
	}
	if len(names) != len(want) {
		t.Fatalf("Expected %d tunables, got %d: %v", len(want), len(names), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name #%d: expected %s, got %s", i, want[i], names[i])
		}
	}
}
