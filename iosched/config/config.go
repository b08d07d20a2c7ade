// Package config builds elevator instances from JSON configuration. The
// tunable overrides go through the scheduler's own registry so parsing,
// validation and clamping behave exactly like runtime writes.
package config

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/iofleet/elevator/common/stats"
	"github.com/iofleet/elevator/iosched"
)

// Config is the top-level configuration for one elevator instance.
type Config struct {
	// Policy is "simple" or "split". Empty selects "simple".
	Policy string `json:"policy"`

	// Tunables maps tunable keys to textual integer values, durations in
	// milliseconds. Keys must belong to the selected policy.
	Tunables map[string]string `json:"tunables"`
}

// Parse decodes configText into a Config. Empty input yields the zero
// Config (simple policy, shipped defaults).
func Parse(configText []byte) (*Config, error) {
	c := &Config{}
	if len(configText) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(configText, c); err != nil {
		return nil, errors.Wrap(err, "parsing elevator config")
	}
	return c, nil
}

// Create builds the scheduler this config describes (or returns an error
// describing why it couldn't).
func (c *Config) Create(stat stats.StatsReceiver) (*iosched.Scheduler, error) {
	var policy iosched.Policy
	switch c.Policy {
	case "", "simple":
		policy = iosched.PolicySimple
	case "split":
		policy = iosched.PolicySplit
	default:
		return nil, errors.Errorf("unknown elevator policy %q", c.Policy)
	}

	sched, err := iosched.New(iosched.DefaultConfig(policy), stat)
	if err != nil {
		return nil, err
	}
	for name, value := range c.Tunables {
		if err := sched.Tunables().Set(name, value); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
