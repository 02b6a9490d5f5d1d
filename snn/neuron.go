// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"unsafe"

	"github.com/chewxy/math32"
)

// snn.Neuron holds all of the spiking neuron (unit) level state variables.
// Layers hold one Neuron per unit per batch element, so a layer with n units
// and batch size b has b*n of these, batch-major.
// All variables must be float32 and are accessible generically via the
// NeuronVars list and VarByIndex / VarByName methods.
type Neuron struct {
	V float32 `desc:"membrane potential -- relaxes toward Rest + R*I and emits a spike when crossing threshold"`
	I float32 `desc:"synaptic current driving the membrane, filtered through the bi-exponential kernel from the fast trace X"`
	X float32 `desc:"fast presynaptic trace -- accumulates incoming spike input and decays with the kernel decay time constant, source of the synaptic current"`

	// whether neuron has spiked or not on the current time step (0 or 1)
	Spike float32

	// refractory countdown, in msec -- decremented by dt every step and set to
	// the refractory duration on spike -- the neuron cannot integrate input
	// while this is > 0 (the sign is what matters; it may go negative)
	RefracCnt float32

	// slow spike trace used by the learning rule (not the current kernel) --
	// decays with the trace time constant and is set (or bumped) by spikes
	Trace float32
}

var NeuronVars = []string{"V", "I", "X", "Spike", "RefracCnt", "Trace"}

var NeuronVarsMap map[string]int

var NeuronVarProps = map[string]string{
	"Spike":     `min:"0" max:"1"`,
	"RefracCnt": `auto-scale:"+"`,
}

func init() {
	NeuronVarsMap = make(map[string]int, len(NeuronVars))
	for i, v := range NeuronVars {
		NeuronVarsMap[v] = i
	}
}

func (nrn *Neuron) VarNames() []string {
	return NeuronVars
}

// NeuronVarIdxByName returns the index of the variable in the Neuron, or error
func NeuronVarIdxByName(varNm string) (int, error) {
	i, ok := NeuronVarsMap[varNm]
	if !ok {
		return -1, fmt.Errorf("Neuron VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in NeuronVars list)
func (nrn *Neuron) VarByIndex(idx int) float32 {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(nrn)) + uintptr(4*idx)))
	return *fv
}

// VarByName returns variable by name, or error
func (nrn *Neuron) VarByName(varNm string) (float32, error) {
	i, err := NeuronVarIdxByName(varNm)
	if err != nil {
		return math32.NaN(), err
	}
	return nrn.VarByIndex(i), nil
}
