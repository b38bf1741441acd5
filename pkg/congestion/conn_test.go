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

import "math"

// fakeConn is a minimal Conn implementation for tests.
type fakeConn struct {
	sndCwnd      uint32
	sndCwndCnt   uint32
	sndCwndClamp uint32
	ssthresh     uint32
	priorCwnd    uint32
	sndNxt       uint32
	sndUna       uint32
	cwndLimited  bool
	caState      State
	pacingRate   uint64
	pacingStatus PacingStatus
	gsoMaxSize   uint32
	lastSendTime uint32
}

var _ Conn = (*fakeConn)(nil)

func newFakeConn() *fakeConn {
	return &fakeConn{
		sndCwnd:      10,
		sndCwndClamp: math.MaxUint32,
		ssthresh:     math.MaxUint32,
		cwndLimited:  true,
		gsoMaxSize:   65536,
	}
}

func (c *fakeConn) SndCwnd() uint32 { return c.sndCwnd }
func (c *fakeConn) SetSndCwnd(cwnd uint32) { c.sndCwnd = cwnd }
func (c *fakeConn) SndCwndCnt() uint32 { return c.sndCwndCnt }
func (c *fakeConn) SetSndCwndCnt(cnt uint32) { c.sndCwndCnt = cnt }
func (c *fakeConn) SndCwndClamp() uint32 { return c.sndCwndClamp }
func (c *fakeConn) SndSsthresh() uint32 { return c.ssthresh }
func (c *fakeConn) SetSndSsthresh(s uint32) { c.ssthresh = s }
func (c *fakeConn) PriorCwnd() uint32 { return c.priorCwnd }
func (c *fakeConn) SndNxt() uint32 { return c.sndNxt }
func (c *fakeConn) SndUna() uint32 { return c.sndUna }
func (c *fakeConn) InSlowStart() bool { return c.sndCwnd < c.ssthresh }
func (c *fakeConn) IsCwndLimited() bool { return c.cwndLimited }
func (c *fakeConn) CAState() State { return c.caState }
func (c *fakeConn) PacingRate() uint64 { return c.pacingRate }
func (c *fakeConn) PacingStatus() PacingStatus { return c.pacingStatus }
func (c *fakeConn) GSOMaxSize() uint32 { return c.gsoMaxSize }
func (c *fakeConn) LastSendTime() uint32 { return c.lastSendTime }
