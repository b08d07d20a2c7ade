package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spf13/cobra"

	"github.com/iofleet/elevator/common/stats"
	"github.com/iofleet/elevator/iosched/config"
	simulator "github.com/iofleet/elevator/perftests/elevator_simulator"
)

// elevsim drives an elevator with a synthetic request stream and prints
// the collected stats as JSON.

var (
	policy       string
	configFile   string
	numRequests  int
	seed         int64
	writeFrac    float64
	asyncFrac    float64
	mergeFrac    float64
	arrivalEvery time.Duration
	tick         time.Duration
	pretty       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "elevsim",
		Short: "elevsim runs a synthetic block I/O workload through a deadline elevator",
		RunE:  run,
	}
	rootCmd.Flags().StringVar(&policy, "policy", "simple", "elevator policy (simple or split)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "JSON elevator config file, overrides --policy")
	rootCmd.Flags().IntVar(&numRequests, "requests", 1000, "number of requests to admit")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "workload random seed")
	rootCmd.Flags().Float64Var(&writeFrac, "write_frac", 0.3, "fraction of requests that are writes")
	rootCmd.Flags().Float64Var(&asyncFrac, "async_frac", 0.5, "fraction of requests that are async")
	rootCmd.Flags().Float64Var(&mergeFrac, "merge_frac", 0.1, "fraction of requests admitted adjacent to a queued one")
	rootCmd.Flags().DurationVar(&arrivalEvery, "arrival_every", 500*time.Microsecond, "mean inter-arrival gap")
	rootCmd.Flags().DurationVar(&tick, "tick", time.Millisecond, "dispatch opportunity interval")
	rootCmd.Flags().BoolVar(&pretty, "pretty", true, "pretty-print the stats render")

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{Policy: policy}
	if configFile != "" {
		configText, err := ioutil.ReadFile(configFile)
		if err != nil {
			return err
		}
		if cfg, err = config.Parse(configText); err != nil {
			return err
		}
	}

	stat, _ := stats.NewCustomStatsReceiver(stats.NewPrettyStatsRegistry, 0)
	stat = stat.Precision(time.Millisecond)

	sched, err := cfg.Create(stat.Scope("elevator"))
	if err != nil {
		return err
	}
	defer sched.Exit()

	params := simulator.Params{
		NumRequests:  numRequests,
		Seed:         seed,
		WriteFrac:    writeFrac,
		AsyncFrac:    asyncFrac,
		MergeFrac:    mergeFrac,
		ArrivalEvery: arrivalEvery,
		Tick:         tick,
	}
	sim := simulator.NewSimulator(sched, params, stat.Scope("sim"))
	sum := sim.Run()
	log.WithFields(log.Fields{
		"admitted":   sum.Admitted,
		"dispatched": sum.Dispatched,
		"merged":     sum.Merged,
	}).Info("run complete")

	fmt.Printf("%s\n", stat.Render(pretty))
	return nil
}
