// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"log"

	"github.com/goki/ki/kit"
)

// snn.SLLayer is the supervisory label (output) layer: plain leaky
// integrate-and-fire neurons with the same bi-exponential current kernel as
// ExcLayer but no adaptive threshold, no refractory period and no lower
// bound on the voltage.
//
// In Train mode its dynamics are frozen: spikes are imposed from outside
// via ForceSpikes (one-hot label trains from the training harness) so that
// the readout connection learns to associate excitatory activity with the
// clamped label.  In Infer mode it integrates normally and its spikes are
// the model's output.
type SLLayer struct {
	LayerBase
	Act ActParams `view:"add-fields" desc:"membrane and current-kernel parameters; Refrac and LBound are unused here"`
}

var KiT_SLLayer = kit.Types.AddType(&SLLayer{}, LayerProps)

func NewSLLayer(name string, shape []int) *SLLayer {
	ly := &SLLayer{}
	ly.Nm = name
	ly.SetShape(shape)
	ly.Defaults()
	return ly
}

func (ly *SLLayer) Defaults() {
	ly.Act.Defaults()
	ly.Act.Rest = -60
	ly.Act.Reset = -45
	ly.Act.Thresh = -40
	ly.Act.Tau = 10
	ly.Act.LBoundOn = false
	ly.Trace.Defaults()
}

func (ly *SLLayer) Build() error {
	if err := ly.BuildBase(); err != nil {
		return err
	}
	if err := ly.Act.Validate(); err != nil {
		return err
	}
	ly.RecomputeDecays(ly.Dt)
	ly.InitVm()
	return nil
}

func (ly *SLLayer) InitVm() {
	for ni := range ly.Neurons {
		ly.Neurons[ni].V = ly.Act.Rest
	}
}

func (ly *SLLayer) RecomputeDecays(dt float32) {
	ly.Dt = dt
	ly.Act.Update(dt)
	ly.Trace.Update(dt)
}

func (ly *SLLayer) SetBatchSize(bs int) {
	ly.AllocState(bs)
	ly.InitVm()
}

func (ly *SLLayer) Reset() {
	for ni := range ly.Neurons {
		ly.Neurons[ni] = Neuron{V: ly.Act.Rest}
	}
}

// ForceSpikes clamps the layer's spike state to the given binary pattern,
// batch-major, length Batch * NumUnits.  Used in Train mode to impose the
// label spikes for the current step.
func (ly *SLLayer) ForceSpikes(s []float32) error {
	if len(s) != ly.NumState() {
		return fmt.Errorf("snn.SLLayer %v: ForceSpikes length %v != batch * units %v", ly.Nm, len(s), ly.NumState())
	}
	for ni := range ly.Neurons {
		ly.Neurons[ni].Spike = s[ni]
	}
	return nil
}

// Step runs one time step.  In Train mode the membrane dynamics are frozen
// and only the traces are updated over the clamped spikes; in Infer mode
// the voltage integrates the synaptic drive and spikes are emitted on
// threshold crossing.
func (ly *SLLayer) Step(x []float32) {
	if len(x) != ly.NumState() {
		log.Printf("snn.SLLayer %v: Step input length %v != batch * units %v\n", ly.Nm, len(x), ly.NumState())
		return
	}
	if ly.Md == Train {
		ly.TraceFmSpikes()
		return
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		ly.Act.VmFmI(nrn)
		nrn.X += x[ni]
		if nrn.V >= ly.Act.Thresh {
			nrn.Spike = 1
			nrn.V = ly.Act.Reset
		} else {
			nrn.Spike = 0
		}
	}
	ly.TraceFmSpikes()
}
