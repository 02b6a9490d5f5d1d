// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"log"

	"github.com/goki/ki/ki"
	"github.com/goki/ki/kit"
)

///////////////////////////////////////////////////////////////////////
//  InputLayer

// snn.InputLayer is a pass-through spike relay: an external encoder supplies
// a binary spike vector per time step, and the layer stores it as its spike
// state and maintains the learning-rule traces over it.  It has no membrane
// dynamics of its own.
type InputLayer struct {
	LayerBase
}

var KiT_InputLayer = kit.Types.AddType(&InputLayer{}, LayerProps)

func NewInputLayer(name string, shape []int) *InputLayer {
	ly := &InputLayer{}
	ly.Nm = name
	ly.SetShape(shape)
	ly.Defaults()
	return ly
}

func (ly *InputLayer) Defaults() {
	ly.Trace.Defaults()
}

// Build allocates the spike and trace state.
func (ly *InputLayer) Build() error {
	if err := ly.BuildBase(); err != nil {
		return err
	}
	ly.RecomputeDecays(ly.Dt)
	return nil
}

func (ly *InputLayer) RecomputeDecays(dt float32) {
	ly.Dt = dt
	ly.Trace.Update(dt)
}

func (ly *InputLayer) SetBatchSize(bs int) {
	ly.AllocState(bs)
}

func (ly *InputLayer) Reset() {
	for ni := range ly.Neurons {
		ly.Neurons[ni] = Neuron{}
	}
}

// Step relays the external spike vector into the layer's spike state and
// updates the traces.
func (ly *InputLayer) Step(x []float32) {
	if len(x) != ly.NumState() {
		log.Printf("snn.InputLayer %v: Step input length %v != batch * units %v\n", ly.Nm, len(x), ly.NumState())
		return
	}
	for ni := range ly.Neurons {
		ly.Neurons[ni].Spike = x[ni]
	}
	ly.TraceFmSpikes()
}

///////////////////////////////////////////////////////////////////////
//  ExcLayer

// snn.ExcLayer is a layer of current-based leaky integrate-and-fire neurons
// with adaptive thresholds and a refractory period -- the excitatory hidden
// layer of the model.  Each step: the voltage integrates the filtered
// synaptic current, input arriving during the refractory period is masked,
// and a neuron spikes when its voltage crosses Thresh plus its adaptive
// threshold elevation theta.  Spiking resets the voltage, starts the
// refractory countdown, and (in Train mode) bumps theta up.
type ExcLayer struct {
	LayerBase
	Act   ActParams   `view:"add-fields" desc:"membrane, current-kernel and refractory parameters"`
	Theta ThetaParams `view:"inline" desc:"adaptive threshold homeostasis parameters"`

	// Thetas are the per-unit adaptive threshold elevations, in mV.  Shape
	// is [NumUnits] only: theta is a slow homeostatic variable shared across
	// the batch dimension, and it survives both Reset and batch-size changes.
	Thetas []float32

	spkSum []float32 // scratch: per-unit spike counts across the batch
}

var KiT_ExcLayer = kit.Types.AddType(&ExcLayer{}, LayerProps)

var LayerProps = ki.Props{}

func NewExcLayer(name string, shape []int) *ExcLayer {
	ly := &ExcLayer{}
	ly.Nm = name
	ly.SetShape(shape)
	ly.Defaults()
	return ly
}

func (ly *ExcLayer) Defaults() {
	ly.Act.Defaults()
	ly.Theta.Defaults()
	ly.Trace.Defaults()
}

// Build allocates all state and validates the parameters.
// Theta is initialized to Theta.Init here and nowhere else.
func (ly *ExcLayer) Build() error {
	if err := ly.BuildBase(); err != nil {
		return err
	}
	if err := ly.Act.Validate(); err != nil {
		return err
	}
	nn := ly.NumUnits()
	ly.Thetas = make([]float32, nn)
	for ni := range ly.Thetas {
		ly.Thetas[ni] = ly.Theta.Init
	}
	ly.spkSum = make([]float32, nn)
	ly.RecomputeDecays(ly.Dt)
	ly.InitVm()
	return nil
}

// InitVm sets all membrane potentials to the resting potential.
func (ly *ExcLayer) InitVm() {
	for ni := range ly.Neurons {
		ly.Neurons[ni].V = ly.Act.Rest
	}
}

func (ly *ExcLayer) RecomputeDecays(dt float32) {
	ly.Dt = dt
	ly.Act.Update(dt)
	ly.Theta.Update(dt)
	ly.Trace.Update(dt)
}

// SetBatchSize reallocates the batched state (voltage, current, traces,
// refractory counters) for a new batch size.  Thetas are per-unit, not
// batched, and are untouched.
func (ly *ExcLayer) SetBatchSize(bs int) {
	ly.AllocState(bs)
	ly.InitVm()
}

// Reset resets the transient state: voltage to rest, current, traces,
// spikes and refractory counters to zero.  Theta persists across resets --
// it is the slow homeostatic memory of the layer.
func (ly *ExcLayer) Reset() {
	for ni := range ly.Neurons {
		ly.Neurons[ni] = Neuron{V: ly.Act.Rest}
	}
}

// Step runs one simulation time step with the given input, which is the
// summed synaptic drive from all incoming connections, batch-major, length
// Batch * NumUnits.  Spikes are left in the neurons' Spike variable.
func (ly *ExcLayer) Step(x []float32) {
	nn := ly.NumUnits()
	if len(x) != ly.NumState() {
		log.Printf("snn.ExcLayer %v: Step input length %v != batch * units %v\n", ly.Nm, len(x), ly.NumState())
		return
	}
	learn := ly.Md == Train
	if learn {
		for ni := range ly.Thetas {
			ly.Thetas[ni] -= ly.Theta.Dt * ly.Thetas[ni]
		}
	}
	for ni := range ly.spkSum {
		ly.spkSum[ni] = 0
	}
	for di := 0; di < ly.Btch; di++ {
		for ni := 0; ni < nn; ni++ {
			nrn := &ly.Neurons[di*nn+ni]
			ly.Act.VmFmI(nrn)
			xi := x[di*nn+ni]
			if nrn.RefracCnt > 0 { // refractory neurons cannot integrate input
				xi = 0
			}
			nrn.RefracCnt -= ly.Dt
			nrn.X += xi
			if nrn.V >= ly.Act.Thresh+ly.Thetas[ni] {
				nrn.Spike = 1
				nrn.RefracCnt = ly.Act.Refrac
				nrn.V = ly.Act.Reset
				ly.spkSum[ni]++
			} else {
				nrn.Spike = 0
			}
			if ly.Act.LBoundOn && nrn.V < ly.Act.LBound {
				nrn.V = ly.Act.LBound
			}
		}
	}
	if learn {
		for ni, nspk := range ly.spkSum {
			if nspk > 0 {
				ly.Thetas[ni] += ly.Theta.Plus * nspk
			}
		}
	}
	ly.TraceFmSpikes()
}
