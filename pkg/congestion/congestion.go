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

// Package congestion implements the computation core of TCP congestion
// control in the style of an operating system network stack: the CUBIC
// and BIC congestion avoidance algorithms, the HyStart hybrid slow start
// heuristic, and the Reno window growth helpers they share.
//
// Each connection owns exactly one algorithm instance. The transport
// stack delivers ACK, loss and state change events through the Algorithm
// interface and applies the window values the algorithm computes. Calls
// for the same connection must be strictly sequential; the state machines
// hold no locks. All computation is integer only, never blocks, and never
// allocates beyond the algorithm's own fixed size state.
//
// All window sizes are counted in MSS sized segments. Time is read from a
// wrapping 32 bit monotonic counter, in milliseconds or microseconds
// depending on the field, and all timestamp comparisons use modular
// arithmetic.
package congestion

import "time"

const (
	msecPerSec  = 1000
	usecPerMsec = 1000
	usecPerSec  = 1000000
)

// State is the congestion state of a connection, as tracked by the
// transport stack.
type State uint8

const (
	// StateOpen is the normal state with no congestion indication.
	StateOpen State = iota
	// StateDisorder indicates reordering or duplicate ACKs.
	StateDisorder
	// StateCWR means the window is being reduced in response to an
	// ECN or local congestion signal.
	StateCWR
	// StateRecovery means fast retransmit is in progress.
	StateRecovery
	// StateLoss means a retransmission timeout has fired.
	StateLoss
)

// Event is a one-shot congestion event reported by the transport stack.
type Event uint8

const (
	// EventTxStart is generated when the connection starts transmitting,
	// possibly after an idle period.
	EventTxStart Event = iota
	// EventCwndRestart is generated when the congestion window is
	// restarted after the connection was idle.
	EventCwndRestart
	// EventCompleteCWR is generated when the window reduction is over.
	EventCompleteCWR
	// EventLoss is generated before a retransmission timeout recovery.
	EventLoss
	// EventECNNoCE is generated for a packet without an ECN mark.
	EventECNNoCE
	// EventECNIsCE is generated for a packet with a congestion
	// experienced mark.
	EventECNIsCE
)

// PacingStatus describes whether the transport stack paces outgoing
// packets for a connection.
type PacingStatus uint8

const (
	// PacingNone means the connection is not paced.
	PacingNone PacingStatus = iota
	// PacingNeeded means congestion control requested pacing.
	PacingNeeded
	// PacingFQ means a packet scheduler is pacing the connection.
	PacingFQ
)

// AckSample describes a batch of packets that left the retransmit queue.
type AckSample struct {
	// PktsAcked is the number of segments newly acknowledged.
	PktsAcked uint32

	// RTT is the round trip time measurement associated with this
	// sample. A negative value means no measurement is available.
	RTT time.Duration
}

// RTTUs returns the RTT of the sample in microseconds, clamped to at
// least 1, and whether a measurement is available.
func (s AckSample) RTTUs() (uint32, bool) {
	if s.RTT < 0 {
		return 0, false
	}
	us := s.RTT.Microseconds()
	if us < 1 {
		us = 1
	}
	if us > int64(^uint32(0)) {
		us = int64(^uint32(0))
	}
	return uint32(us), true
}

// Conn is the per connection view that congestion control operates on.
// It is implemented by the transport stack (or by a simulator). The
// algorithms only ever read connection state through this interface and
// write back the window values they compute.
type Conn interface {
	// SndCwnd returns the current congestion window.
	SndCwnd() uint32

	// SetSndCwnd replaces the congestion window.
	SetSndCwnd(cwnd uint32)

	// SndCwndCnt returns the linear increase counter: the number of
	// ACKed segments accumulated toward the next window increment.
	SndCwndCnt() uint32

	// SetSndCwndCnt replaces the linear increase counter.
	SetSndCwndCnt(cnt uint32)

	// SndCwndClamp is the upper bound the congestion window may never
	// exceed.
	SndCwndClamp() uint32

	// SndSsthresh returns the slow start threshold.
	SndSsthresh() uint32

	// SetSndSsthresh replaces the slow start threshold.
	SetSndSsthresh(ssthresh uint32)

	// PriorCwnd is the congestion window right before the last
	// reduction.
	PriorCwnd() uint32

	// SndNxt is the sequence number of the next byte to be sent.
	SndNxt() uint32

	// SndUna is the sequence number of the first unacknowledged byte.
	SndUna() uint32

	// InSlowStart reports whether the window is below the slow start
	// threshold.
	InSlowStart() bool

	// IsCwndLimited reports whether the connection is using the whole
	// congestion window. Growing the window is pointless otherwise.
	IsCwndLimited() bool

	// CAState returns the current congestion state.
	CAState() State

	// PacingRate returns the pacing rate in bytes per second, or 0 when
	// the rate is unknown.
	PacingRate() uint64

	// PacingStatus returns whether the connection is paced.
	PacingStatus() PacingStatus

	// GSOMaxSize is the maximum segmentation offload size in bytes.
	GSOMaxSize() uint32

	// LastSendTime is the wrapping millisecond timestamp of the last
	// transmission.
	LastSendTime() uint32
}

// Algorithm is a per connection congestion control algorithm. The
// transport stack invokes each method with the connection the instance
// was created for; invocations for one connection never overlap.
type Algorithm interface {
	// Name returns the name the algorithm is known under.
	Name() string

	// Init is called once when a connection adopts this algorithm.
	Init(conn Conn)

	// Release is called once when the connection is torn down.
	Release(conn Conn)

	// Ssthresh returns the new slow start threshold. It is called when
	// the connection enters CWR, Recovery or Loss from Open or Disorder.
	Ssthresh(conn Conn) uint32

	// CongAvoid is called for every ACK that may grow the window.
	// ack is the sequence number being acknowledged and acked the
	// number of newly acknowledged segments.
	CongAvoid(conn Conn, ack, acked uint32)

	// SetState is called on every congestion state transition.
	SetState(conn Conn, state State)

	// PktsAcked is called when packets leave the retransmit queue.
	PktsAcked(conn Conn, sample AckSample)

	// CwndEvent is called on one-shot congestion events.
	CwndEvent(conn Conn, event Event)

	// UndoCwnd returns the congestion window to use after an
	// unnecessary reduction is reverted.
	UndoCwnd(conn Conn) uint32
}

// after reports whether the wrapping sequence number or timestamp a is
// newer than b.
func after(a, b uint32) bool {
	return int32(b-a) < 0
}
