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

// CUBIC congestion avoidance. The congestion window grows along a cubic
// function of the time since the last loss event, with the plateau of
// the curve placed at the window where that loss happened. Growth is
// therefore fast far away from the last known safe operating point and
// careful close to it.
//
// Based on:
//     Sangtae Ha, Injong Rhee, and Lisong Xu. 2008.
//     CUBIC: A New TCP-Friendly High-Speed TCP Variant.
//     SIGOPS Oper. Syst. Rev. 42, 5 (July 2008), 64-74.
//     https://doi.org/10.1145/1400097.1400105
//
// CUBIC is also described in RFC 9438.

// cubicBetaScale is the fixed point scale for the multiplicative
// decrease factor beta.
const cubicBetaScale = 1024

// CubicConfig carries the tunables of the Cubic algorithm. The zero
// value is not usable; start from DefaultCubicConfig.
type CubicConfig struct {
	// FastConvergence releases bandwidth of existing flows faster when
	// a new flow joins the link, to speed up convergence to a steady
	// state.
	FastConvergence bool

	// Beta is the multiplicative decrease factor applied to the window
	// on a loss event, divided by 1024. The default 717 is roughly 0.7.
	Beta uint32

	// BicScale scales the cubic coefficient C; C = BicScale/1024 with
	// reference to a 100ms RTT. The default is 41.
	BicScale uint32

	// TCPFriendliness makes the window grow at least as fast as
	// standard TCP would, for short RTT or low bandwidth delay product
	// links where the cubic curve is the slower one.
	TCPFriendliness bool

	// HyStart enables the hybrid slow start heuristic.
	HyStart bool

	// HyStartConfig carries the HyStart tunables when HyStart is on.
	HyStartConfig HyStartConfig

	// InitialSsthresh is applied to the connection at init time.
	// 0 keeps the connection default.
	InitialSsthresh uint32

	// Clock is the time source. nil selects the process monotonic
	// clock.
	Clock Clock
}

// DefaultCubicConfig returns the Cubic tunables with the defaults of the
// reference implementation.
func DefaultCubicConfig() CubicConfig {
	return CubicConfig{
		FastConvergence: true,
		Beta:            717,
		BicScale:        41,
		TCPFriendliness: true,
		HyStart:         true,
		HyStartConfig:   DefaultHyStartConfig(),
	}
}

// Cubic is one connection's instance of the CUBIC algorithm.
//
// Callbacks for the same connection must not be invoked concurrently.
type Cubic struct {
	conf           CubicConfig
	clock          Clock
	loggingContext string

	// Derived from the config at construction time.
	betaScale    uint32 // 8/3 * (1+beta)/(1-beta), dimensionless
	cubeRTTScale uint32 // 2^10*C/SRTT with SRTT = 100ms, unit s^-3
	cubeFactor   uint64 // SRTT/C, unit ms^3

	// Increase cwnd by one step after cnt ACKs. Never below 2.
	cnt uint32
	// W_max: the window at the point of the last loss.
	lastMaxCwnd uint32
	// Window value at the last recompute, and when it happened.
	lastCwnd uint32
	lastTime uint32
	// Window where the plateau of the cubic function is located.
	originPoint uint32
	// Time to reach originPoint, in ms from the beginning of an epoch.
	k uint32
	// Beginning of the current congestion avoidance epoch. Valid only
	// while inEpoch is set.
	epochStart uint32
	inEpoch    bool
	// Packets ACKed in the current epoch, and the concurrent estimate
	// of the window standard TCP would have reached. Both are used by
	// the TCP friendliness fallback.
	ackCnt  uint32
	tcpCwnd uint32

	hystart hyStart
}

var _ Algorithm = (*Cubic)(nil)

// NewCubic returns a Cubic instance for one connection, with default
// tunables. The loggingContext string tags this connection's trace
// output.
func NewCubic(loggingContext string) *Cubic {
	return NewCubicWithConfig(loggingContext, DefaultCubicConfig())
}

// NewCubicWithConfig returns a Cubic instance for one connection.
func NewCubicWithConfig(loggingContext string, conf CubicConfig) *Cubic {
	if conf.Beta == 0 || conf.Beta >= cubicBetaScale {
		panic("cubic beta must be in range (0, 1024)")
	}
	if conf.BicScale == 0 {
		panic("cubic bic scale must not be zero")
	}
	if conf.Clock == nil {
		conf.Clock = NewSystemClock()
	}
	cubeRTTScale := conf.BicScale * 10
	c := &Cubic{
		conf:           conf,
		clock:          conf.Clock,
		loggingContext: loggingContext,
		betaScale:      ((8 * (cubicBetaScale + conf.Beta)) / 3) / (cubicBetaScale - conf.Beta),
		cubeRTTScale:   cubeRTTScale,
		cubeFactor:     1000000000 * (uint64(1) << 10) / uint64(cubeRTTScale),
		cnt:            1,
		hystart: hyStart{
			conf:           conf.HyStartConfig,
			loggingContext: loggingContext,
		},
	}
	return c
}

// Name implements the Algorithm interface.
func (c *Cubic) Name() string {
	return "cubic"
}

// Init implements the Algorithm interface.
func (c *Cubic) Init(conn Conn) {
	if c.conf.HyStart {
		c.hystart.reset(conn, c.clock.NowUs32())
	} else if c.conf.InitialSsthresh != 0 {
		conn.SetSndSsthresh(c.conf.InitialSsthresh)
	}
}

// Release implements the Algorithm interface.
func (c *Cubic) Release(conn Conn) {}

// CwndEvent implements the Algorithm interface. Cubic only consumes
// TxStart: when the connection was idle for a while, the epoch start is
// shifted by the idle time so that the idle period is not credited as
// cubic curve growth.
func (c *Cubic) CwndEvent(conn Conn, event Event) {
	if event != EventTxStart {
		return
	}

	now := c.clock.NowMs32()
	delta := now - conn.LastSendTime()
	if int32(delta) <= 0 {
		return
	}
	if !c.inEpoch {
		return
	}

	epochStart := c.epochStart + delta
	if after(epochStart, now) {
		epochStart = now
	}
	c.epochStart = epochStart
}

// SetState implements the Algorithm interface. Only a transition to Loss
// is of interest: it voids everything the algorithm learned in the
// current epoch.
func (c *Cubic) SetState(conn Conn, state State) {
	if state == StateLoss {
		if log.IsLevelEnabled(log.TraceLevel) {
			log.Tracef("[Cubic %s] retransmission timeout, resetting", c.loggingContext)
		}
		c.reset()
		c.hystart.reset(conn, c.clock.NowUs32())
	}
}

// PktsAcked implements the Algorithm interface. It maintains the minimum
// delay estimate and drives HyStart while in slow start.
func (c *Cubic) PktsAcked(conn Conn, sample AckSample) {
	// Some samples do not include RTTs.
	delay, ok := sample.RTTUs()
	if !ok {
		return
	}

	// For some time after exiting fast recovery the samples might still
	// be inaccurate.
	if c.inEpoch && c.clock.NowMs32()-c.epochStart < msecPerSec {
		return
	}

	// First sample after a reset, or the delay decreased.
	if c.hystart.state.delayMin == 0 || c.hystart.state.delayMin > delay {
		c.hystart.state.delayMin = delay
	}

	if conn.InSlowStart() && c.conf.HyStart && c.hystart.inHyStart(conn.SndCwnd()) {
		c.hystart.update(conn, delay, c.clock.NowUs32())
	}
}

// Ssthresh implements the Algorithm interface.
func (c *Cubic) Ssthresh(conn Conn) uint32 {
	cwnd := conn.SndCwnd()

	// The epoch has ended.
	c.inEpoch = false
	c.epochStart = 0
	if cwnd < c.lastMaxCwnd && c.conf.FastConvergence {
		c.lastMaxCwnd = (cwnd * (cubicBetaScale + c.conf.Beta)) / (2 * cubicBetaScale)
	} else {
		c.lastMaxCwnd = cwnd
	}

	return mathext.Max((cwnd*c.conf.Beta)/cubicBetaScale, 2)
}

// UndoCwnd implements the Algorithm interface.
func (c *Cubic) UndoCwnd(conn Conn) uint32 {
	return renoUndoCwnd(conn)
}

// CongAvoid implements the Algorithm interface.
func (c *Cubic) CongAvoid(conn Conn, ack, acked uint32) {
	if !conn.IsCwndLimited() {
		return
	}

	if conn.InSlowStart() {
		acked = slowStart(conn, acked)
		if acked == 0 {
			return
		}
	}

	cnt := c.update(conn.SndCwnd(), acked)
	congAvoidAI(conn, cnt, acked)
}

// tcpFriendliness checks if the current CUBIC increase is less
// aggressive than standard TCP, i.e. if we are in the TCP friendly
// region. If so it returns a cnt that grows the window at the speed of
// standard TCP instead.
func (c *Cubic) tcpFriendliness(cnt, cwnd uint32) uint32 {
	if !c.conf.TCPFriendliness {
		return cnt
	}

	// Estimate the window of standard TCP:
	// W_tcp(t) = W_tcp(t0) + (acks(t) - acks(t0)) / delta
	// with delta = cwnd/3 * (1+beta)/(1-beta).
	delta := (cwnd * c.betaScale) >> 3
	for c.ackCnt > delta {
		c.ackCnt -= delta
		c.tcpCwnd++
	}

	if c.tcpCwnd > cwnd {
		// We are slower than standard TCP.
		return mathext.Min(cnt, cwnd/(c.tcpCwnd-cwnd))
	}
	return cnt
}

// update returns the new cnt that keeps the window growing along the
// cubic curve.
func (c *Cubic) update(cwnd, acked uint32) uint32 {
	now := c.clock.NowMs32()

	c.ackCnt += acked

	// Do nothing if we are invoked too frequently.
	if c.lastCwnd == cwnd && now-c.lastTime <= msecPerSec/32 {
		return c.cnt
	}

	// The cubic function is evaluated at most once per millisecond.
	// Within the same millisecond only the TCP friendliness estimate
	// moves.
	if c.inEpoch && now == c.lastTime {
		c.cnt = mathext.Max(2, c.tcpFriendliness(c.cnt, cwnd))
		return c.cnt
	}

	c.lastCwnd = cwnd
	c.lastTime = now

	if !c.inEpoch {
		c.inEpoch = true
		c.epochStart = now
		c.ackCnt = acked
		c.tcpCwnd = cwnd

		if c.lastMaxCwnd <= cwnd {
			// The curve restarts from the current window.
			c.k = 0
			c.originPoint = cwnd
		} else {
			// K = (SRTT/C * (W_max - cwnd))^1/3
			c.k = mathext.CubeRoot(c.cubeFactor * uint64(c.lastMaxCwnd-cwnd))
			c.originPoint = c.lastMaxCwnd
		}
		if log.IsLevelEnabled(log.TraceLevel) {
			log.Tracef("[Cubic %s] new epoch: start %dms, K %dms, originPoint %d",
				c.loggingContext, c.epochStart, c.k, c.originPoint)
		}
	}

	delayMin := c.hystart.state.delayMin
	if delayMin == 0 {
		log.Debugf("[Cubic %s] update: no delayMin estimate", c.loggingContext)
		return c.cnt
	}

	// Elapsed time on the curve, shifted by the propagation delay.
	t := (now - c.epochStart) + delayMin/usecPerMsec
	var offs uint32
	if t < c.k {
		offs = c.k - t
	} else {
		offs = t - c.k
	}

	// delta = C/RTT * (t-K)^3, changing units to seconds. Widen to
	// prevent overflow of the cube.
	delta := uint32((uint64(c.cubeRTTScale) * uint64(offs) * uint64(offs) * uint64(offs) >> 10) / 1000000000)
	var target uint32
	if t < c.k {
		target = c.originPoint - delta
	} else {
		target = c.originPoint + delta
	}

	var cnt uint32
	if target > cwnd {
		cnt = cwnd / (target - cwnd)
	} else {
		// Effectively keeps cwnd constant for the next RTT.
		cnt = 100 * cwnd
	}

	// In the initial epoch, or after a timeout, grow at a minimum rate.
	if c.lastMaxCwnd == 0 {
		cnt = mathext.Min(cnt, 20)
	}

	c.cnt = mathext.Max(2, c.tcpFriendliness(cnt, cwnd))
	return c.cnt
}

// reset reinitializes the state to a freshly constructed instance.
func (c *Cubic) reset() {
	c.cnt = 1
	c.lastMaxCwnd = 0
	c.lastCwnd = 0
	c.lastTime = 0
	c.originPoint = 0
	c.k = 0
	c.epochStart = 0
	c.inEpoch = false
	c.ackCnt = 0
	c.tcpCwnd = 0
	c.hystart.state = hystartState{}
}
