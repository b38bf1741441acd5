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

import (
	"testing"
	"time"

	"github.com/congo-net/congo/pkg/log"
)

// newSlowStartConn returns a connection in slow start with a window
// large enough for the hybrid slow start heuristics to be active.
func newSlowStartConn() *fakeConn {
	conn := newFakeConn()
	conn.sndCwnd = 16
	conn.sndUna = 500
	conn.sndNxt = 1000
	return conn
}

func TestHyStartAckTrain(t *testing.T) {
	log.SetOutputToTest(t)
	clock := NewManualClock()
	c := newTestCubic(clock)
	conn := newSlowStartConn()
	c.Init(conn)

	// The minimum delay estimate is 10ms, so without pacing the ACK
	// train has to span more than 5ms to signal a filled path.
	clock.Advance(1 * time.Millisecond)
	c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
	if c.hystart.state.found {
		t.Fatalf("found = true after a 1ms train")
	}

	// 6ms since the last ACK: not part of the train.
	clock.Advance(6 * time.Millisecond)
	c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
	if c.hystart.state.found {
		t.Fatalf("found = true after a broken train")
	}

	// Exactly AckDelta since the last ACK still extends the train, and
	// the train now spans 9ms since the round started.
	clock.Advance(2 * time.Millisecond)
	c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
	if !c.hystart.state.found {
		t.Fatalf("found = false, want ACK train exit")
	}
	if conn.ssthresh != 16 {
		t.Errorf("ssthresh = %d, want the window 16", conn.ssthresh)
	}
	if conn.InSlowStart() {
		t.Errorf("InSlowStart() = true, want slow start exited")
	}
}

func TestHyStartDelay(t *testing.T) {
	log.SetOutputToTest(t)
	clock := NewManualClock()
	c := newTestCubic(clock)
	conn := newSlowStartConn()
	c.Init(conn)

	// First round: a single 4ms sample sets the baseline delay.
	clock.Advance(1 * time.Millisecond)
	c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 4 * time.Millisecond})
	if c.hystart.state.delayMin != 4000 {
		t.Fatalf("delayMin = %d, want 4000", c.hystart.state.delayMin)
	}

	// The whole first round window is acknowledged, the next ACK
	// starts a new round. The RTT has doubled: once enough samples
	// confirm it, slow start ends. The ACKs are spaced wider than
	// AckDelta so that only the delay heuristic can fire.
	conn.sndUna = 1500
	conn.sndNxt = 5000
	for i := 0; i < 8; i++ {
		clock.Advance(3 * time.Millisecond)
		c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
		if c.hystart.state.found {
			t.Fatalf("found = true after %d samples, want at least %d", i+1, DefaultHyStartConfig().MinSamples)
		}
	}

	clock.Advance(3 * time.Millisecond)
	c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
	if !c.hystart.state.found {
		t.Fatalf("found = false, want delay exit")
	}
	if conn.ssthresh != 16 {
		t.Errorf("ssthresh = %d, want the window 16", conn.ssthresh)
	}
}

func TestHyStartLowWindow(t *testing.T) {
	log.SetOutputToTest(t)
	clock := NewManualClock()
	c := newTestCubic(clock)
	conn := newSlowStartConn()
	conn.sndCwnd = 10
	c.Init(conn)

	// Below LowWindow nothing fires, not even with absurd delays.
	for i := 0; i < 20; i++ {
		clock.Advance(1 * time.Millisecond)
		c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: time.Second})
	}
	if c.hystart.state.found {
		t.Errorf("found = true at cwnd 10, want heuristics inactive")
	}
	if !conn.InSlowStart() {
		t.Errorf("InSlowStart() = false, want still in slow start")
	}
}

func TestHyStartFoundSticky(t *testing.T) {
	log.SetOutputToTest(t)
	clock := NewManualClock()
	c := newTestCubic(clock)
	conn := newSlowStartConn()
	c.Init(conn)

	c.hystart.state.found = true
	conn.ssthresh = 16

	// No amount of fast, smooth ACKs brings slow start back.
	for i := 0; i < 20; i++ {
		clock.Advance(1 * time.Millisecond)
		c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: time.Millisecond})
	}
	if !c.hystart.state.found {
		t.Errorf("found = false, want sticky until a full reset")
	}

	// A retransmission timeout is a full reset.
	c.SetState(conn, StateLoss)
	if c.hystart.state.found {
		t.Errorf("found = true, want cleared by the loss reset")
	}
}

func TestHyStartDelayThresh(t *testing.T) {
	h := hyStart{conf: DefaultHyStartConfig()}
	testcases := []struct {
		rtt  uint32
		want uint32
	}{
		// rtt/8 clamped to [4ms, 16ms].
		{1000, 4000},
		{4000, 4000},
		{64000, 8000},
		{200000, 16000},
	}
	for _, tc := range testcases {
		if got := h.delayThresh(tc.rtt); got != tc.want {
			t.Errorf("delayThresh(%d) = %d, want %d", tc.rtt, got, tc.want)
		}
	}
}

func TestHyStartAckDelay(t *testing.T) {
	h := hyStart{conf: DefaultHyStartConfig()}
	conn := newFakeConn()

	// No pacing rate, no extra spacing.
	if got := h.ackDelay(conn); got != 0 {
		t.Errorf("ackDelay() = %d, want 0", got)
	}

	// 64KB GSO bursts at 100MB/s take 2621us each, capped to 1ms.
	conn.pacingRate = 100 * 1000 * 1000
	if got := h.ackDelay(conn); got != 1000 {
		t.Errorf("ackDelay() = %d, want the 1ms cap", got)
	}

	// At 1GB/s a burst takes 262us.
	conn.pacingRate = 1000 * 1000 * 1000
	if got := h.ackDelay(conn); got != 262 {
		t.Errorf("ackDelay() = %d, want 262", got)
	}
}

func TestHyStartPacedThreshold(t *testing.T) {
	// With pacing active the ACK train threshold is not halved, so a
	// train that would end slow start on an unpaced connection does
	// not on a paced one.
	log.SetOutputToTest(t)

	run := func(status PacingStatus) bool {
		clock := NewManualClock()
		c := newTestCubic(clock)
		conn := newSlowStartConn()
		conn.pacingStatus = status
		c.Init(conn)

		clock.Advance(1 * time.Millisecond)
		c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
		// 7ms into the round: beyond the halved 5ms threshold, short
		// of the full 10ms one.
		clock.Advance(2 * time.Millisecond)
		c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
		clock.Advance(2 * time.Millisecond)
		c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
		clock.Advance(2 * time.Millisecond)
		c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
		return c.hystart.state.found
	}

	if !run(PacingNone) {
		t.Errorf("unpaced connection: found = false, want ACK train exit")
	}
	if run(PacingFQ) {
		t.Errorf("paced connection: found = true, want threshold not halved")
	}
}

func TestHyStartNewRoundResets(t *testing.T) {
	log.SetOutputToTest(t)
	clock := NewManualClock()
	c := newTestCubic(clock)
	conn := newSlowStartConn()
	c.Init(conn)

	clock.Advance(1 * time.Millisecond)
	c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
	if c.hystart.state.sampleCnt != 1 {
		t.Fatalf("sampleCnt = %d, want 1", c.hystart.state.sampleCnt)
	}

	// Acknowledging past endSeq opens a new round.
	conn.sndUna = 1500
	conn.sndNxt = 5000
	clock.Advance(1 * time.Millisecond)
	c.PktsAcked(conn, AckSample{PktsAcked: 1, RTT: 10 * time.Millisecond})
	if c.hystart.state.roundStart != clock.NowUs32() {
		t.Errorf("roundStart = %d, want %d", c.hystart.state.roundStart, clock.NowUs32())
	}
	if c.hystart.state.endSeq != 5000 {
		t.Errorf("endSeq = %d, want 5000", c.hystart.state.endSeq)
	}
	if c.hystart.state.sampleCnt != 1 {
		t.Errorf("sampleCnt = %d, want 1 again in the new round", c.hystart.state.sampleCnt)
	}
}
