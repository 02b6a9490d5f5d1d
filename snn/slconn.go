// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/chewxy/math32"
	"github.com/emer/emergent/prjn"
	"github.com/goki/ki/kit"
)

// snn.SLConn is the readout connection into the supervisory label layer.
// It behaves like Conn except that Normalize rescales per sending unit
// (over the fan-out row) instead of per receiving unit, so that each
// excitatory unit distributes a fixed total of absolute weight across the
// labels.
type SLConn struct {
	Conn
}

var KiT_SLConn = kit.Types.AddType(&SLConn{}, ConnProps)

func NewSLConn(send, recv Population, pat prjn.Pattern) *SLConn {
	cn := &SLConn{}
	cn.Init(send, recv, pat)
	return cn
}

// Normalize rescales each sending unit's fan-out row of weights so its
// absolute sum equals Norm.Total.  Rows summing to zero are left alone.
func (cn *SLConn) Normalize() {
	if !cn.Norm.On {
		return
	}
	ns := cn.NSend()
	nr := cn.NRecv()
	for si := 0; si < ns; si++ {
		row := cn.Wts.Values[si*nr : (si+1)*nr]
		sum := float32(0)
		for _, w := range row {
			sum += math32.Abs(w)
		}
		if sum == 0 {
			continue
		}
		sc := cn.Norm.Total / sum
		for ri := range row {
			row[ri] *= sc
		}
	}
}
