// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

// LearnRule is a plasticity rule applied to a pathway's weights once per
// simulation step, in Train mode.  The rule reads spike and trace state
// from the pathway's layers and modifies the weight matrix in place;
// bounding to WtLim is done by the caller afterward.
type LearnRule interface {
	Apply(cn *Conn, ctx *RuleCtx)
}

// RuleCtx carries the global modulatory signals a learning rule can use.
type RuleCtx struct {
	Da   float32 `desc:"dopamine / reward signal for the current step: positive for reward, negative for punishment, zero for neutral"`
	Time *Time   `desc:"simulation time state"`
}

// DaSTDP is dopamine-modulated spike-timing-dependent plasticity.
// It is a standard trace-based STDP pair rule whose net change is gated and
// signed by the reward signal Da:
//
//	dWt = Da * (NuPost * preTrace * postSpike - NuPre * postTrace * preSpike)
//
// summed over the batch dimension.  With Da = 0 nothing changes; negative
// Da turns potentiation into depression and vice versa.
type DaSTDP struct {
	NuPre  float32 `def:"0.0001" desc:"learning rate for the pre-synaptic (depression) term, triggered by pre spikes against the post trace"`
	NuPost float32 `def:"0.01" desc:"learning rate for the post-synaptic (potentiation) term, triggered by post spikes against the pre trace"`
}

func (ls *DaSTDP) Defaults() {
	ls.NuPre = 1e-4
	ls.NuPost = 1e-2
}

func (ls *DaSTDP) Update() {
}

func (ls *DaSTDP) Apply(cn *Conn, ctx *RuleCtx) {
	if ctx == nil || ctx.Da == 0 {
		return
	}
	sl := cn.Send.AsBase()
	rl := cn.Recv.AsBase()
	ns := cn.NSend()
	nr := cn.NRecv()
	bs := sl.Batch()
	for di := 0; di < bs; di++ {
		for si := 0; si < ns; si++ {
			sn := &sl.Neurons[di*ns+si]
			if sn.Spike == 0 && sn.Trace == 0 {
				continue
			}
			for ri := 0; ri < nr; ri++ {
				rn := &rl.Neurons[di*nr+ri]
				dwt := ls.NuPost*sn.Trace*rn.Spike - ls.NuPre*rn.Trace*sn.Spike
				if dwt == 0 {
					continue
				}
				if !cn.ConExists(si, ri) {
					continue
				}
				cn.Wts.Values[si*nr+ri] += ctx.Da * dwt
			}
		}
	}
}

///////////////////////////////////////////////////////////////////////
//  Size-dependent constants

// thetaDecayBySize overrides the adaptive threshold decay time constant for
// larger hidden layers: more units spike less often individually, so their
// thresholds must decay more slowly to stay calibrated.
var thetaDecayBySize = map[int]float32{
	400:  4e7,
	1600: 8e7,
	6400: 2e8,
}

// lrateScaleBySize scales both STDP learning rates down for larger hidden
// layers, where per-synapse updates accumulate over more active pairs.
var lrateScaleBySize = map[int]float32{
	400:  0.5,
	1600: 0.25,
	6400: 0.125,
}

// NetworkConstBySize returns the adaptive threshold constants (Plus, Tau)
// for the given hidden layer size, starting from the given defaults.
// Sizes without an entry keep the defaults.
func NetworkConstBySize(nUnits int, thetaPlus, thetaTau float32) (float32, float32) {
	if tc, ok := thetaDecayBySize[nUnits]; ok {
		thetaTau = tc
	}
	return thetaPlus, thetaTau
}

// LrateBySize returns the (NuPre, NuPost) learning rates for the given
// hidden layer size, starting from the given defaults.  Sizes without an
// entry keep the defaults.
func LrateBySize(nUnits int, nuPre, nuPost float32) (float32, float32) {
	if sc, ok := lrateScaleBySize[nUnits]; ok {
		nuPre *= sc
		nuPost *= sc
	}
	return nuPre, nuPost
}
