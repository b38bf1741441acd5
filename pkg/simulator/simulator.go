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

// Package simulator replays a congestion control algorithm against a
// single deterministic bottleneck link, without any real network. Time
// is driven by a manual clock, so a minute of transfer takes
// microseconds to simulate and always produces the same trace.
package simulator

import (
	"fmt"
	"math"
	"time"

	"github.com/congo-net/congo/pkg/congestion"
	"github.com/congo-net/congo/pkg/log"
	"github.com/congo-net/congo/pkg/mathext"
)

// TracePoint is a snapshot of the connection at the end of one round
// trip.
type TracePoint struct {
	TimeMs      uint32
	Cwnd        uint32
	Ssthresh    uint32
	SmoothedRTT time.Duration
	Losses      uint32
}

// simConn is the simulated connection state the algorithm operates on.
type simConn struct {
	cwnd         uint32
	cwndCnt      uint32
	cwndClamp    uint32
	ssthresh     uint32
	priorCwnd    uint32
	sndNxt       uint32
	sndUna       uint32
	caState      congestion.State
	lastSendTime uint32
}

var _ congestion.Conn = (*simConn)(nil)

func (c *simConn) SndCwnd() uint32 { return c.cwnd }
func (c *simConn) SetSndCwnd(cwnd uint32) { c.cwnd = cwnd }
func (c *simConn) SndCwndCnt() uint32 { return c.cwndCnt }
func (c *simConn) SetSndCwndCnt(cnt uint32) { c.cwndCnt = cnt }
func (c *simConn) SndCwndClamp() uint32 { return c.cwndClamp }
func (c *simConn) SndSsthresh() uint32 { return c.ssthresh }
func (c *simConn) SetSndSsthresh(s uint32) { c.ssthresh = s }
func (c *simConn) PriorCwnd() uint32 { return c.priorCwnd }
func (c *simConn) SndNxt() uint32 { return c.sndNxt }
func (c *simConn) SndUna() uint32 { return c.sndUna }
func (c *simConn) InSlowStart() bool { return c.cwnd < c.ssthresh }
func (c *simConn) IsCwndLimited() bool { return true }
func (c *simConn) CAState() congestion.State { return c.caState }
func (c *simConn) PacingRate() uint64 { return 0 }
func (c *simConn) PacingStatus() congestion.PacingStatus {
	return congestion.PacingNone
}
func (c *simConn) GSOMaxSize() uint32 { return 65536 }
func (c *simConn) LastSendTime() uint32 { return c.lastSendTime }

// Simulator runs one scenario. Not safe for concurrent use.
type Simulator struct {
	scenario *Scenario
	clock    *congestion.ManualClock
	algo     congestion.Algorithm
	conn     *simConn
	rttStats *congestion.RTTStats
	losses   uint32
}

// New returns a Simulator for the given scenario.
func New(scenario *Scenario) (*Simulator, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	clock := congestion.NewManualClock()
	var algo congestion.Algorithm
	switch scenario.Algorithm {
	case "cubic":
		conf := congestion.DefaultCubicConfig()
		conf.Clock = clock
		algo = congestion.NewCubicWithConfig("sim", conf)
	case "bic":
		conf := congestion.DefaultBicConfig()
		conf.Clock = clock
		algo = congestion.NewBicWithConfig("sim", conf)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", scenario.Algorithm)
	}

	conn := &simConn{
		cwnd:      scenario.InitialCwnd,
		cwndClamp: math.MaxUint32,
		ssthresh:  math.MaxUint32,
		caState:   congestion.StateOpen,
	}
	conn.sndNxt = conn.cwnd

	s := &Simulator{
		scenario: scenario,
		clock:    clock,
		algo:     algo,
		conn:     conn,
		rttStats: congestion.NewRTTStats(),
	}
	s.algo.Init(conn)
	return s, nil
}

// Run replays the scenario and returns one trace point per round trip.
func (s *Simulator) Run() []TracePoint {
	rtt := time.Duration(s.scenario.RTTMs) * time.Millisecond
	rounds := s.scenario.DurationMs / s.scenario.RTTMs
	trace := make([]TracePoint, 0, rounds)

	for i := uint32(0); i < rounds; i++ {
		s.clock.Advance(rtt)
		s.runRound(rtt)
		trace = append(trace, TracePoint{
			TimeMs:      s.clock.NowMs32(),
			Cwnd:        s.conn.cwnd,
			Ssthresh:    s.conn.ssthresh,
			SmoothedRTT: s.rttStats.SmoothedRTT(),
			Losses:      s.losses,
		})
	}
	return trace
}

// runRound plays out one round trip: either the window overflows the
// bottleneck and the sender reduces, or every outstanding segment is
// acknowledged, two segments per ACK.
func (s *Simulator) runRound(rtt time.Duration) {
	conn := s.conn
	cwnd := conn.cwnd

	if cwnd > s.scenario.BottleneckCwnd {
		s.losses++
		conn.priorCwnd = cwnd
		conn.caState = congestion.StateRecovery
		s.algo.SetState(conn, congestion.StateRecovery)
		conn.ssthresh = s.algo.Ssthresh(conn)
		conn.cwnd = conn.ssthresh
		conn.cwndCnt = 0
		conn.caState = congestion.StateOpen
		s.algo.SetState(conn, congestion.StateOpen)
		if log.IsLevelEnabled(log.TraceLevel) {
			log.Tracef("[Simulator] %dms: loss at cwnd %d, continue at %d",
				s.clock.NowMs32(), conn.priorCwnd, conn.cwnd)
		}
		return
	}

	for acked := uint32(0); acked < cwnd; acked += 2 {
		n := mathext.Min(uint32(2), cwnd-acked)
		conn.sndUna += n
		s.algo.PktsAcked(conn, congestion.AckSample{PktsAcked: n, RTT: rtt})
		s.algo.CongAvoid(conn, conn.sndUna, n)
	}
	conn.lastSendTime = s.clock.NowMs32()
	conn.sndNxt = conn.sndUna + conn.cwnd
	s.rttStats.UpdateRTT(rtt)
}

// Losses returns the number of loss events so far.
func (s *Simulator) Losses() uint32 {
	return s.losses
}
