// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package latinhib provides fixed lateral (recurrent) inhibition weights for a
spiking layer: every neuron inhibits every other neuron in its layer with a
uniform negative weight, but not itself.  This produces a winner-take-some
competition where the first neurons to spike suppress the rest of the layer.

The weights are static -- they are built once and never learn.
*/
package latinhib

import "github.com/emer/etable/etensor"

// Params specifies the strength and shape of lateral inhibition within a layer.
type Params struct {
	Gi      float32 `def:"60" min:"0" desc:"strength of the lateral inhibition -- each off-diagonal weight is -Gi"`
	SelfCon bool    `desc:"include self-connections (diagonal) -- off by default: a neuron does not inhibit itself"`
}

func (lp *Params) Defaults() {
	lp.Gi = 60
}

func (lp *Params) Update() {
}

// Wts builds the n x n lateral inhibitory weight matrix: -Gi everywhere
// except the diagonal, which is 0 unless SelfCon is set.
func (lp *Params) Wts(n int) *etensor.Float32 {
	w := etensor.NewFloat32([]int{n, n}, nil, []string{"Send", "Recv"})
	for si := 0; si < n; si++ {
		for ri := 0; ri < n; ri++ {
			if si == ri && !lp.SelfCon {
				continue
			}
			w.Values[si*n+ri] = -lp.Gi
		}
	}
	return w
}
