// Copyright (C) 2025  congo authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// congosim replays a congestion control scenario and prints the window
// trace, one line per round trip.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/congo-net/congo/pkg/log"
	"github.com/congo-net/congo/pkg/simulator"
)

var (
	scenarioPath = flag.String("scenario", "", "Path to the scenario YAML file. Uses the default scenario if empty.")
	algorithm    = flag.String("algorithm", "", "Override the congestion control algorithm: cubic or bic.")
	logLevel     = flag.String("loglevel", "info", "Log level: trace, debug, info, warn, error.")
)

func main() {
	flag.Parse()
	log.SetFormatter(&log.CliFormatter{})
	if ok := log.SetLevel(*logLevel); !ok {
		fmt.Fprintf(os.Stderr, "unknown log level %q\n", *logLevel)
		os.Exit(1)
	}

	scenario := simulator.DefaultScenario()
	if *scenarioPath != "" {
		var err error
		scenario, err = simulator.LoadScenario(*scenarioPath)
		if err != nil {
			log.Fatalf("loading scenario: %v", err)
		}
	}
	if *algorithm != "" {
		scenario.Algorithm = *algorithm
	}

	sim, err := simulator.New(scenario)
	if err != nil {
		log.Fatalf("creating simulator: %v", err)
	}
	trace := sim.Run()

	fmt.Printf("%8s %8s %10s %8s %8s\n", "time", "cwnd", "ssthresh", "srtt", "losses")
	for _, p := range trace {
		ssthresh := fmt.Sprintf("%d", p.Ssthresh)
		if p.Ssthresh == ^uint32(0) {
			ssthresh = "-"
		}
		fmt.Printf("%6dms %8d %10s %8v %8d\n", p.TimeMs, p.Cwnd, ssthresh, p.SmoothedRTT, p.Losses)
	}
}
