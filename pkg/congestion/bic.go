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
	"github.com/congo-net/congo/pkg/log"
	"github.com/congo-net/congo/pkg/mathext"
)

// Binary Increase Congestion control (BIC). The window growth toward the
// last known loss point is a binary search: large steps while far away,
// small careful steps while close.
//
// Based on:
//     Binary Increase Congestion Control (BIC) for Fast Long-Distance
//     Networks - Lisong Xu, Khaled Harfoush, and Injong Rhee
//     IEEE INFOCOM 2004, Hong Kong, China, 2004, pp. 2514-2524 vol.4
//     https://doi.org/10.1109/INFCOM.2004.1354672

const (
	// bicAckRatioShift is the fixed point shift of the delayed ACK
	// ratio estimate.
	bicAckRatioShift = 4

	// bicBetaScale converts Beta to a factor in [0, 1] with integer
	// arithmetic.
	bicBetaScale = 1024

	// bicMinUpdateInterval is the minimum amount of time that has to
	// pass between two recomputations of cnt for an unchanged window.
	bicMinUpdateInterval = msecPerSec / 32
)

// BicConfig carries the tunables of the Bic algorithm. The zero value is
// not usable; start from DefaultBicConfig.
type BicConfig struct {
	// LowWindow is the window threshold below which plain TCP
	// increase/decrease is performed instead of binary search.
	LowWindow uint32

	// B is the binary search divisor: each step goes to
	// cwnd + (W_max - cwnd)/B.
	B uint32

	// MaxIncrement is S_max, the largest additive increase step.
	MaxIncrement uint32

	// SmoothPart is the number of RTTs it takes to cross from
	// W_max - B to W_max, giving a slow additive increase around the
	// loss point. This is not part of the original paper.
	SmoothPart uint32

	// FastConvergence releases bandwidth of existing flows faster when
	// a new flow joins the link.
	FastConvergence bool

	// Beta is the multiplicative decrease factor, divided by 1024. The
	// default 819 is roughly 0.8.
	Beta uint32

	// InitialSsthresh is applied to the connection at init time.
	// 0 keeps the connection default.
	InitialSsthresh uint32

	// Clock is the time source. nil selects the process monotonic
	// clock.
	Clock Clock
}

// DefaultBicConfig returns the Bic tunables with the defaults of the
// reference implementation.
func DefaultBicConfig() BicConfig {
	return BicConfig{
		LowWindow:       14,
		B:               4,
		MaxIncrement:    16,
		SmoothPart:      20,
		FastConvergence: true,
		Beta:            819,
	}
}

// Bic is one connection's instance of the BIC algorithm.
//
// Callbacks for the same connection must not be invoked concurrently.
type Bic struct {
	conf           BicConfig
	clock          Clock
	loggingContext string

	// During congestion avoidance, cwnd is increased at most every cnt
	// acknowledged packets, i.e. the average increase per acknowledged
	// packet is proportional to 1/cnt. Never zero.
	cnt uint32
	// W_max: the window at the point of the last loss.
	lastMaxCwnd uint32
	// Window value at the last recompute, and when it happened.
	lastCwnd uint32
	lastTime uint32
	// Beginning of the current congestion avoidance epoch. 0 means no
	// epoch.
	epochStart uint32
	// Estimate of the packets/ACK ratio, shifted by bicAckRatioShift.
	// Adjusts the growth when a receiver ACKs multiple packets at once.
	delayedACK uint32
}

var _ Algorithm = (*Bic)(nil)

// NewBic returns a Bic instance for one connection, with default
// tunables. The loggingContext string tags this connection's trace
// output.
func NewBic(loggingContext string) *Bic {
	return NewBicWithConfig(loggingContext, DefaultBicConfig())
}

// NewBicWithConfig returns a Bic instance for one connection.
func NewBicWithConfig(loggingContext string, conf BicConfig) *Bic {
	if conf.B == 0 {
		panic("bic binary search divisor must not be zero")
	}
	if conf.MaxIncrement == 0 {
		panic("bic max increment must not be zero")
	}
	if conf.Beta == 0 || conf.Beta >= bicBetaScale {
		panic("bic beta must be in range (0, 1024)")
	}
	if conf.Clock == nil {
		conf.Clock = NewSystemClock()
	}
	return &Bic{
		conf:           conf,
		clock:          conf.Clock,
		loggingContext: loggingContext,
		cnt:            1,
		delayedACK:     2 << bicAckRatioShift,
	}
}

// Name implements the Algorithm interface.
func (b *Bic) Name() string {
	return "bic"
}

// Init implements the Algorithm interface.
func (b *Bic) Init(conn Conn) {
	if b.conf.InitialSsthresh != 0 {
		conn.SetSndSsthresh(b.conf.InitialSsthresh)
	}
}

// Release implements the Algorithm interface.
func (b *Bic) Release(conn Conn) {}

// CwndEvent implements the Algorithm interface. Bic ignores all events.
func (b *Bic) CwndEvent(conn Conn, event Event) {}

// PktsAcked implements the Algorithm interface. It tracks the delayed
// ACK ratio with a sliding window: ratio = (15*ratio + sample) / 16.
// Samples are only taken in the Open state.
func (b *Bic) PktsAcked(conn Conn, sample AckSample) {
	if conn.CAState() == StateOpen {
		b.delayedACK += sample.PktsAcked - b.delayedACK>>bicAckRatioShift
	}
}

// Ssthresh implements the Algorithm interface.
func (b *Bic) Ssthresh(conn Conn) uint32 {
	cwnd := conn.SndCwnd()

	if log.IsLevelEnabled(log.TraceLevel) {
		log.Tracef("[Bic %s] entering fast retransmit at cwnd %d", b.loggingContext, cwnd)
	}

	// The epoch has ended.
	b.epochStart = 0
	if cwnd < b.lastMaxCwnd && b.conf.FastConvergence {
		b.lastMaxCwnd = (cwnd * (bicBetaScale + b.conf.Beta)) / (2 * bicBetaScale)
	} else {
		b.lastMaxCwnd = cwnd
	}

	if cwnd <= b.conf.LowWindow {
		// Act like plain TCP.
		return mathext.Max(cwnd>>1, 2)
	}
	return mathext.Max((cwnd*b.conf.Beta)/bicBetaScale, 2)
}

// UndoCwnd implements the Algorithm interface.
func (b *Bic) UndoCwnd(conn Conn) uint32 {
	return renoUndoCwnd(conn)
}

// SetState implements the Algorithm interface.
func (b *Bic) SetState(conn Conn, state State) {
	if state == StateLoss {
		if log.IsLevelEnabled(log.TraceLevel) {
			log.Tracef("[Bic %s] retransmission timeout, resetting", b.loggingContext)
		}
		b.reset()
	}
}

// CongAvoid implements the Algorithm interface.
func (b *Bic) CongAvoid(conn Conn, ack, acked uint32) {
	if !conn.IsCwndLimited() {
		return
	}

	if conn.InSlowStart() {
		acked = slowStart(conn, acked)
		if acked == 0 {
			return
		}
	}

	cnt := b.update(conn.SndCwnd())
	congAvoidAI(conn, cnt, acked)
}

// update returns the new cnt that governs the window growth during
// congestion avoidance.
func (b *Bic) update(cwnd uint32) uint32 {
	now := b.clock.NowMs32()

	// Do nothing if we are invoked too frequently.
	if b.lastCwnd == cwnd && now-b.lastTime <= bicMinUpdateInterval {
		return b.cnt
	}

	b.lastCwnd = cwnd
	b.lastTime = now

	// Record the beginning of an epoch.
	if b.epochStart == 0 {
		b.epochStart = now
	}

	// Start off like plain TCP.
	if cwnd <= b.conf.LowWindow {
		b.cnt = mathext.Max(cwnd, 1)
		return b.cnt
	}

	var newCnt uint32
	if cwnd < b.lastMaxCwnd {
		// Binary increase toward W_max.
		dist := (b.lastMaxCwnd - cwnd) / b.conf.B

		if dist > b.conf.MaxIncrement {
			// Additive increase.
			newCnt = cwnd / b.conf.MaxIncrement
		} else if dist <= 1 {
			// Careful additive increase.
			newCnt = (cwnd * b.conf.SmoothPart) / b.conf.B
		} else {
			// Binary search.
			newCnt = cwnd / dist
		}
	} else {
		if cwnd < b.lastMaxCwnd+b.conf.B {
			// Careful additive increase.
			newCnt = (cwnd * b.conf.SmoothPart) / b.conf.B
		} else if cwnd < b.lastMaxCwnd+b.conf.MaxIncrement*(b.conf.B-1) {
			// Slow start beyond W_max.
			newCnt = (cwnd * (b.conf.B - 1)) / (cwnd - b.lastMaxCwnd)
		} else {
			// Linear increase.
			newCnt = cwnd / b.conf.MaxIncrement
		}
	}

	// In initial slow start, or when link utilization is very low.
	if b.lastMaxCwnd == 0 {
		newCnt = mathext.Min(newCnt, 20)
	}

	// Account for the estimated packets/ACK ratio so that the window
	// grows per packet, not per ACK.
	newCnt = (newCnt << bicAckRatioShift) / b.delayedACK
	b.cnt = mathext.Max(newCnt, 1)

	return b.cnt
}

// reset reinitializes the state to a freshly constructed instance.
func (b *Bic) reset() {
	b.cnt = 1
	b.lastMaxCwnd = 0
	b.lastCwnd = 0
	b.lastTime = 0
	b.epochStart = 0
	b.delayedACK = 2 << bicAckRatioShift
}
