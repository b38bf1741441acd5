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

package congestion

import "time"

// Clock supplies wrapping 32 bit monotonic timestamps. The algorithms
// read the clock once per callback and only ever compare timestamps with
// modular subtraction, so wraparound of the counter is harmless.
type Clock interface {
	// NowMs32 returns the current time in milliseconds.
	NowMs32() uint32

	// NowUs32 returns the current time in microseconds.
	NowUs32() uint32
}

// systemClock reads the process monotonic clock.
type systemClock struct {
	start time.Time
}

var _ Clock = (*systemClock)(nil)

// NewSystemClock returns a Clock backed by the process monotonic clock.
func NewSystemClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) NowMs32() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

func (c *systemClock) NowUs32() uint32 {
	return uint32(time.Since(c.start).Microseconds())
}

// ManualClock is a Clock that only moves when told to. It is used by
// tests and by the simulator.
type ManualClock struct {
	nowUs uint64
}

var _ Clock = (*ManualClock)(nil)

// NewManualClock returns a ManualClock starting at time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) NowMs32() uint32 {
	return uint32(c.nowUs / usecPerMsec)
}

func (c *ManualClock) NowUs32() uint32 {
	return uint32(c.nowUs)
}

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("can't move the clock backwards")
	}
	c.nowUs += uint64(d.Microseconds())
}
