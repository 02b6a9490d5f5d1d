// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package biexp provides the parameters for a bi-exponential (double
exponential) synaptic current kernel, with separate rise and decay time
constants.

The post-synaptic current I is driven by a fast trace X of incoming spikes:

	I += IncDt * (C * X - I)
	X -= DecDt * X

where IncDt = dt / TauInc and DecDt = dt / TauDec.  C is the peak
normalization constant:

	C = (TauDec / TauInc) ^ (TauInc / (TauDec - TauInc))

which scales the kernel so that its peak amplitude is 1 for a single input
spike, regardless of the two time constants.  The formula divides by zero
when the two time constants are equal, so that configuration is rejected
in Validate.
*/
package biexp

import (
	"fmt"

	"github.com/goki/mat32"
)

// Params are the time constants and derived rate and normalization values
// for the bi-exponential synaptic kernel.
type Params struct {
	TauInc float32 `def:"10" min:"0" desc:"rise time constant for the synaptic current, in msec -- how quickly the current builds up toward the trace-driven level"`
	TauDec float32 `def:"5" min:"0" desc:"decay time constant for the presynaptic trace, in msec -- how quickly the spike trace that drives the current falls off -- must differ from TauInc"`

	IncDt float32 `inactive:"+" view:"-" json:"-" xml:"-" desc:"rate = dt / TauInc -- set in Update"`
	DecDt float32 `inactive:"+" view:"-" json:"-" xml:"-" desc:"rate = dt / TauDec -- set in Update"`
	C     float32 `inactive:"+" view:"-" json:"-" xml:"-" desc:"peak normalization constant -- set in Update"`
}

func (bp *Params) Defaults() {
	bp.TauInc = 10
	bp.TauDec = 5
	bp.Update(1)
}

// Update computes the derived rate constants and the peak normalization
// constant C from the time constants, for the given simulation time step dt.
// Call Validate first if the time constants may have been set externally.
func (bp *Params) Update(dt float32) {
	bp.IncDt = dt / bp.TauInc
	bp.DecDt = dt / bp.TauDec
	bp.C = mat32.Pow(bp.TauDec/bp.TauInc, bp.TauInc/(bp.TauDec-bp.TauInc))
}

// Validate returns an error for time-constant configurations that would
// produce NaN or Inf in the derived values.
func (bp *Params) Validate() error {
	if bp.TauInc <= 0 || bp.TauDec <= 0 {
		return fmt.Errorf("biexp.Params: time constants must be > 0, got TauInc: %v, TauDec: %v", bp.TauInc, bp.TauDec)
	}
	if bp.TauInc == bp.TauDec {
		return fmt.Errorf("biexp.Params: TauInc and TauDec must differ (both are %v) -- equal time constants make the peak normalization constant divide by zero", bp.TauInc)
	}
	return nil
}

// CurrentStep advances current i and trace x by one time step, returning the
// updated values.  The trace accumulation from new input spikes happens
// separately, after this decay step.
func (bp *Params) CurrentStep(i, x float32) (float32, float32) {
	i += bp.IncDt * (bp.C*x - i)
	x -= bp.DecDt * x
	return i, x
}
