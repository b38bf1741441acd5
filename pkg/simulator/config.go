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

package simulator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Scenario describes one simulated connection and the link it runs
// over.
type Scenario struct {
	// Algorithm selects the congestion control algorithm, "cubic" or
	// "bic".
	Algorithm string `yaml:"algorithm"`

	// RTTMs is the round trip time of the link in milliseconds.
	RTTMs uint32 `yaml:"rttMs"`

	// BottleneckCwnd is the number of segments the path holds. A
	// window larger than this loses a packet.
	BottleneckCwnd uint32 `yaml:"bottleneckCwnd"`

	// InitialCwnd is the congestion window at connection start.
	InitialCwnd uint32 `yaml:"initialCwnd"`

	// DurationMs is the length of the simulated transfer in
	// milliseconds.
	DurationMs uint32 `yaml:"durationMs"`
}

// DefaultScenario returns a cubic transfer over a 50ms link.
func DefaultScenario() *Scenario {
	return &Scenario{
		Algorithm:      "cubic",
		RTTMs:          50,
		BottleneckCwnd: 200,
		InitialCwnd:    10,
		DurationMs:     60000,
	}
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%q) failed: %w", path, err)
	}
	s := DefaultScenario()
	if err := yaml.UnmarshalStrict(b, s); err != nil {
		return nil, fmt.Errorf("yaml.UnmarshalStrict() failed: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate returns an error if the scenario can't be run.
func (s *Scenario) Validate() error {
	if s.Algorithm != "cubic" && s.Algorithm != "bic" {
		return fmt.Errorf("unknown algorithm %q", s.Algorithm)
	}
	if s.RTTMs == 0 {
		return fmt.Errorf("rttMs must be positive")
	}
	if s.BottleneckCwnd == 0 {
		return fmt.Errorf("bottleneckCwnd must be positive")
	}
	if s.InitialCwnd == 0 {
		return fmt.Errorf("initialCwnd must be positive")
	}
	if s.DurationMs == 0 {
		return fmt.Errorf("durationMs must be positive")
	}
	return nil
}
