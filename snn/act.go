// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/biospike/snn/biexp"
)

///////////////////////////////////////////////////////////////////////
//  act.go contains the neuron-level activation params for snn layers

// snn.ActParams contains the membrane and synaptic-current parameters for a
// current-based leaky integrate-and-fire neuron.  This is included in the
// layer types to drive the per-step computation.  Voltage relaxes toward
// Rest + R*I at rate dt/Tau, and a spike resets it to Reset.
type ActParams struct {
	Rest   float32 `def:"-65" desc:"resting membrane potential, in mV -- the voltage decays toward this in the absence of input"`
	Reset  float32 `def:"-65" desc:"post-spike reset potential, in mV"`
	Thresh float32 `def:"-52" desc:"base spike threshold potential, in mV -- the adaptive threshold theta is added on top of this for excitatory neurons"`
	Tau    float32 `def:"100" min:"1" desc:"membrane time constant, in msec -- how slowly the voltage relaxes toward Rest + R*I"`
	R      float32 `def:"32" desc:"input resistance -- scales the synaptic current's contribution to the voltage equation"`
	Refrac float32 `def:"2" min:"0" desc:"post-spike refractory duration, in msec -- input is masked and no integration of new spikes occurs while refractory -- 0 disables"`

	LBoundOn bool         `desc:"enable clipping of the membrane potential at a lower bound"`
	LBound   float32      `viewif:"LBoundOn" def:"-100" desc:"lower bound for the membrane potential -- lateral inhibition can otherwise drive the voltage arbitrarily negative"`
	Syn      biexp.Params `view:"inline" desc:"bi-exponential synaptic current kernel time constants"`

	VmDt float32 `inactive:"+" view:"-" json:"-" xml:"-" desc:"rate = dt / Tau -- set in Update"`
}

func (ac *ActParams) Defaults() {
	ac.Rest = -65
	ac.Reset = -65
	ac.Thresh = -52
	ac.Tau = 100
	ac.R = 32
	ac.Refrac = 2
	ac.LBoundOn = true
	ac.LBound = -100
	ac.Syn.Defaults()
	ac.Update(1)
}

// Update computes the derived rate constants for the given simulation time
// step dt, in msec.  Must be called after any changes to parameters.
func (ac *ActParams) Update(dt float32) {
	ac.VmDt = dt / ac.Tau
	ac.Syn.Update(dt)
}

// Validate returns an error for parameter configurations that would produce
// NaN or Inf in the derived values.
func (ac *ActParams) Validate() error {
	return ac.Syn.Validate()
}

// VmFmI integrates the membrane potential one step from the current synaptic
// current, and advances the current and fast trace through the kernel.
func (ac *ActParams) VmFmI(nrn *Neuron) {
	nrn.V += ac.VmDt * (ac.Rest - nrn.V + ac.R*nrn.I)
	nrn.I, nrn.X = ac.Syn.CurrentStep(nrn.I, nrn.X)
}

//////////////////////////////////////////////////////////////////////////////////////
//  ThetaParams

// ThetaParams govern the adaptive threshold homeostasis for excitatory
// neurons: every spike pushes the per-unit threshold elevation theta up by
// Plus, and theta decays exponentially toward zero with time constant Tau.
// This prevents any one neuron from dominating layer activity.  Theta is a
// slow variable: it is shared across the batch dimension and is not cleared
// by a state reset.
type ThetaParams struct {
	Plus float32 `def:"0.05" desc:"threshold increment per spike, in mV -- summed over the batch dimension"`
	Tau  float32 `def:"2e7" min:"1" desc:"decay time constant for theta, in msec -- orders of magnitude slower than the membrane dynamics"`
	Init float32 `def:"20" desc:"initial theta value at construction, in mV -- starts elevated so that early activity is sparse"`

	Dt float32 `inactive:"+" view:"-" json:"-" xml:"-" desc:"rate = dt / Tau -- set in Update"`
}

func (tp *ThetaParams) Defaults() {
	tp.Plus = 0.05
	tp.Tau = 2e7
	tp.Init = 20
	tp.Update(1)
}

// Update computes the derived decay rate for the given time step dt, in msec.
func (tp *ThetaParams) Update(dt float32) {
	tp.Dt = dt / tp.Tau
}
