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
	"math"

	"github.com/congo-net/congo/pkg/log"
	"github.com/congo-net/congo/pkg/mathext"
)

// HyStart exits slow start before the first loss, using two independent
// signals: the spacing of ACK bursts (ACK trains) and the inflation of
// the round RTT between consecutive rounds. Either signal firing sets
// the slow start threshold to the current window.
//
// Based on:
//     Sangtae Ha, Injong Rhee,
//     Taming the elephants: New TCP slow start,
//     Computer Networks, Volume 55, Issue 9, 2011, Pages 2092-2110.
//     https://doi.org/10.1016/j.comnet.2011.01.014

// HyStartDetect selects the heuristics used to find the slow start exit
// point.
type HyStartDetect uint8

const (
	// HyStartAckTrain exits slow start when the span of an ACK train
	// reaches the estimated minimum forward path one-way delay.
	HyStartAckTrain HyStartDetect = 0x1
	// HyStartDelay exits slow start when the round RTT exceeds the
	// minimum observed delay by a threshold.
	HyStartDelay HyStartDetect = 0x2
	// HyStartBoth combines both heuristics.
	HyStartBoth HyStartDetect = HyStartAckTrain | HyStartDelay
)

// HyStartConfig carries the tunables of the HyStart heuristic.
type HyStartConfig struct {
	// Detect selects the exit heuristics to run.
	Detect HyStartDetect

	// LowWindow is the lower congestion window bound below which
	// HyStart stays out of the way.
	LowWindow uint32

	// AckDelta is the maximum spacing in microseconds between two ACKs
	// that still belong to the same ACK train.
	AckDelta uint32

	// MinSamples is the number of ACKs sampled at the beginning of each
	// round to estimate the RTT of the round.
	MinSamples uint8

	// DelayMin and DelayMax bound, in microseconds, the RTT increase
	// between consecutive rounds that triggers an exit from slow start.
	DelayMin uint32
	DelayMax uint32
}

// DefaultHyStartConfig returns the HyStart tunables with their customary
// defaults.
func DefaultHyStartConfig() HyStartConfig {
	return HyStartConfig{
		Detect:     HyStartBoth,
		LowWindow:  16,
		AckDelta:   2000,
		MinSamples: 8,
		DelayMin:   4000,
		DelayMax:   16000,
	}
}

// hystartState is the per connection state of the heuristic. The round
// bookkeeping fields are reset at the start of every slow start round;
// found and delayMin only by a full algorithm reset.
type hystartState struct {
	// Number of ACKs already sampled to determine the RTT of this round.
	sampleCnt uint8
	// Whether the slow start exit point was found. Monotonic until the
	// next full reset.
	found bool
	// Time when the current round has started.
	roundStart uint32
	// Sequence number of the byte that marks the end of the current
	// round.
	endSeq uint32
	// Time when the last ACK was received in this round.
	lastACK uint32
	// The minimum RTT of the current round.
	currRTT uint32
	// Estimate of the minimum forward path one-way delay of the link,
	// in microseconds. 0 means no sample was taken yet; measurements
	// are clamped to at least 1.
	delayMin uint32
}

// hyStart is the heuristic bundled with its tunables, embedded by value
// in the algorithm that uses it.
type hyStart struct {
	conf           HyStartConfig
	state          hystartState
	loggingContext string
}

// inHyStart returns true while hybrid slow start is active for the given
// congestion window.
func (h *hyStart) inHyStart(cwnd uint32) bool {
	return !h.state.found && cwnd >= h.conf.LowWindow
}

// reset begins a new round: the window outstanding right now has to be
// acknowledged before the round ends.
func (h *hyStart) reset(conn Conn, nowUs uint32) {
	h.state.roundStart = nowUs
	h.state.lastACK = nowUs
	h.state.endSeq = conn.SndNxt()
	h.state.currRTT = math.MaxUint32
	h.state.sampleCnt = 0
}

// delayThresh returns the RTT increase between consecutive rounds that
// triggers an exit from slow start, given the RTT t of the last round.
// This is the function eta from the paper.
func (h *hyStart) delayThresh(t uint32) uint32 {
	return mathext.Mid(h.conf.DelayMax, h.conf.DelayMin, t>>3)
}

// ackDelay models the extra ACK spacing expected from segmentation
// offload when the connection is paced.
func (h *hyStart) ackDelay(conn Conn) uint32 {
	rate := conn.PacingRate()
	if rate == 0 {
		return 0
	}
	return uint32(mathext.Min(uint64(usecPerMsec), uint64(conn.GSOMaxSize())*4*usecPerSec/rate))
}

// update runs the exit heuristics against one ACK. delay is the RTT
// sample in microseconds, already clamped to at least 1; nowUs is the
// receive timestamp of the ACK.
func (h *hyStart) update(conn Conn, delay, nowUs uint32) {
	// The whole window at round start was acknowledged, a new round
	// begins.
	if after(conn.SndUna(), h.state.endSeq) {
		h.reset(conn, nowUs)
	}

	delayMin := h.state.delayMin
	if delayMin == 0 {
		// Should not happen, delayMin is recorded before slow start
		// reaches LowWindow.
		log.Debugf("[HyStart %s] update: no delayMin estimate", h.loggingContext)
		return
	}

	if h.conf.Detect&HyStartAckTrain != 0 {
		// Is this ACK part of a train? The comparison is kept unsigned
		// and inclusive, exactly like the production implementation,
		// even though the paper reads as if it wanted a signed one.
		if nowUs-h.state.lastACK <= h.conf.AckDelta {
			threshold := delayMin + h.ackDelay(conn)
			if conn.PacingStatus() == PacingNone {
				threshold >>= 1
			}

			// Does the span of this train say the window has filled the
			// path?
			if nowUs-h.state.roundStart > threshold {
				if log.IsLevelEnabled(log.TraceLevel) {
					log.Tracef("[HyStart %s] ACK train %dus > %dus, exit slow start at cwnd %d",
						h.loggingContext, nowUs-h.state.roundStart, threshold, conn.SndCwnd())
				}
				conn.SetSndSsthresh(conn.SndCwnd())
				h.state.found = true
			}

			h.state.lastACK = nowUs
		}
	}

	if h.conf.Detect&HyStartDelay != 0 {
		// The paper only takes the minimum RTT of the first MinSamples
		// ACKs in a round, but it does no harm to consider later ACKs
		// as well.
		if h.state.currRTT > delay {
			h.state.currRTT = delay
		}

		if h.state.sampleCnt < h.conf.MinSamples {
			h.state.sampleCnt++
		} else if h.state.currRTT > delayMin+h.delayThresh(delayMin) {
			if log.IsLevelEnabled(log.TraceLevel) {
				log.Tracef("[HyStart %s] round RTT %dus > %dus, exit slow start at cwnd %d",
					h.loggingContext, h.state.currRTT, delayMin+h.delayThresh(delayMin), conn.SndCwnd())
			}
			h.state.found = true
			conn.SetSndSsthresh(conn.SndCwnd())
		}
	}
}
