package iosched

import (
	"math/rand"

	"github.com/leanovate/gopter"
)

// Workload is a randomly generated admission sequence used by the
// property tests and the perftest tooling.
type Workload struct {
	Policy  Policy
	Classes []Class
}

// Generates a random class valid for the given policy, using the
// supplied Rand.
func GenRandomClass(p Policy, rng *rand.Rand) Class {
	if p == PolicySimple {
		return simpleClasses[rng.Intn(len(simpleClasses))]
	}
	return splitClasses[rng.Intn(len(splitClasses))]
}

// Generates a random Workload for the given policy with up to maxLen
// admissions, using the supplied Rand.
func GenRandomWorkload(p Policy, maxLen int, rng *rand.Rand) *Workload {
	n := rng.Intn(maxLen + 1)
	w := &Workload{Policy: p, Classes: make([]Class, n)}
	for i := 0; i < n; i++ {
		w.Classes[i] = GenRandomClass(p, rng)
	}
	return w
}

func GopterGenWorkload() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		p := PolicySimple
		if genParams.Rng.Intn(2) == 1 {
			p = PolicySplit
		}
		w := GenRandomWorkload(p, 200, genParams.Rng)
		return gopter.NewGenResult(w, gopter.NoShrinker)
	}
}

func GopterGenSplitWorkload() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		w := GenRandomWorkload(PolicySplit, 200, genParams.Rng)
		return gopter.NewGenResult(w, gopter.NoShrinker)
	}
}
