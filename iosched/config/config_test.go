package config

import (
	"testing"

	"github.com/iofleet/elevator/iosched"
)

func Test_Parse_EmptyYieldsDefaults(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s, err := c.Create(nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got, _ := s.Tunables().Get(iosched.KeyReadExpire); got != "250" {
		t.Errorf("Expected simple-policy defaults, read_expire was %s", got)
	}
}

func Test_Parse_MalformedJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Errorf("Expected a parse error")
	}
}

func Test_Create_SplitWithOverrides(t *testing.T) {
	c, err := Parse([]byte(`{
		"policy": "split",
		"tunables": {"sync_read_expire": "100", "writes_starved": "2"}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s, err := c.Create(nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got, _ := s.Tunables().Get(iosched.KeySyncReadExpire); got != "100" {
		t.Errorf("Expected overridden sync_read_expire=100, got %s", got)
	}
	if got, _ := s.Tunables().Get(iosched.KeyWritesStarved); got != "2" {
		t.Errorf("Expected overridden writes_starved=2, got %s", got)
	}
	if got, _ := s.Tunables().Get(iosched.KeyAsyncWriteExpire); got != "16000" {
		t.Errorf("Expected untouched async_write_expire default, got %s", got)
	}
}

func Test_Create_RejectsBadPolicy(t *testing.T) {
	c := &Config{Policy: "cfq"}
	if _, err := c.Create(nil); err == nil {
		t.Errorf("Expected an error for an unknown policy name")
	}
}

func Test_Create_RejectsBadTunable(t *testing.T) {
	c := &Config{Policy: "simple", Tunables: map[string]string{"writes_starved": "4"}}
	if _, err := c.Create(nil); err == nil {
		t.Errorf("Expected an error for a split-only key under the simple policy")
	}

	c = &Config{Policy: "split", Tunables: map[string]string{"fifo_batch": "lots"}}
	if _, err := c.Create(nil); err == nil {
		t.Errorf("Expected an error for a malformed tunable value")
	}
}
