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

import "github.com/congo-net/congo/pkg/mathext"

// Reno style window growth helpers shared by the algorithms.

// slowStart grows the congestion window exponentially, by one segment
// per acknowledged segment, up to the slow start threshold. It returns
// the number of acknowledged segments left over after crossing the
// threshold; a zero return means the window is still below it.
func slowStart(conn Conn, acked uint32) uint32 {
	cwnd := mathext.Min(conn.SndCwnd()+acked, conn.SndSsthresh())
	acked -= cwnd - conn.SndCwnd()
	conn.SetSndCwnd(mathext.Min(cwnd, conn.SndCwndClamp()))
	return acked
}

// congAvoidAI grows the congestion window by one segment for every w
// acknowledged segments, using the connection's linear increase counter
// to carry the remainder between calls. w must not be zero; both
// algorithms clamp their cnt before handing it over.
func congAvoidAI(conn Conn, w, acked uint32) {
	cwndCnt := conn.SndCwndCnt()

	// If credits accumulated at a higher w, apply them gently.
	if cwndCnt >= w {
		cwndCnt = 0
		conn.SetSndCwnd(conn.SndCwnd() + 1)
	}

	cwndCnt += acked
	if cwndCnt >= w {
		delta := cwndCnt / w
		cwndCnt -= delta * w
		conn.SetSndCwnd(conn.SndCwnd() + delta)
	}
	conn.SetSndCwndCnt(cwndCnt)
	conn.SetSndCwnd(mathext.Min(conn.SndCwnd(), conn.SndCwndClamp()))
}

// renoUndoCwnd restores the congestion window after an unnecessary
// reduction is reverted.
func renoUndoCwnd(conn Conn) uint32 {
	return mathext.Max(conn.SndCwnd(), conn.PriorCwnd())
}
