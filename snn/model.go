// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/biospike/snn/latinhib"
	"github.com/emer/emergent/prjn"
)

// ModelParams are the size and dynamics parameters for the standard
// three-layer model assembly built by NewNetwork.
type ModelParams struct {
	NInput  int `desc:"number of input units, matching the 1D size of the encoded input data"`
	NHidden int `def:"100" desc:"number of excitatory hidden units"`
	NOutput int `desc:"number of label (output) units, matching the number of classes"`

	Inh       float32      `def:"60" desc:"strength of the recurrent lateral inhibition on the hidden layer"`
	Time      float32      `def:"350" desc:"duration of one sample presentation, in msec"`
	Dt        float32      `def:"0.5" desc:"integration time step, in msec"`
	NuPre     float32      `def:"0.0001" desc:"base pre-synaptic STDP learning rate, before size scaling"`
	NuPost    float32      `def:"0.01" desc:"base post-synaptic STDP learning rate, before size scaling"`
	InWtMax   float32      `def:"1" desc:"maximum weight on the input pathway; initial weights are uniform in [0, InWtMax]"`
	OutWtMax  float32      `def:"8" desc:"maximum weight on the readout pathway; initial weights are uniform in [0, OutWtMax]"`
	NormScale float32      `def:"0.1" desc:"scaling factor for the weight normalization totals of both plastic pathways"`
	ThetaPlus float32      `def:"0.05" desc:"per-spike adaptive threshold increment, before size scaling"`
	ThetaTau  float32      `def:"2e7" desc:"adaptive threshold decay time constant, in msec, before size scaling"`
	Method    TrainMethods `desc:"training regime the model is intended for"`
}

func (mp *ModelParams) Defaults() {
	mp.NHidden = 100
	mp.Inh = 60
	mp.Time = 350
	mp.Dt = 0.5
	mp.NuPre = 1e-4
	mp.NuPost = 1e-2
	mp.InWtMax = 1
	mp.OutWtMax = 8
	mp.NormScale = 0.1
	mp.ThetaPlus = 0.05
	mp.ThetaTau = 2e7
}

// Validate checks the sizes that have no usable defaults.
func (mp *ModelParams) Validate() error {
	if mp.NInput <= 0 || mp.NOutput <= 0 {
		return fmt.Errorf("snn.ModelParams: NInput (%v) and NOutput (%v) must be positive", mp.NInput, mp.NOutput)
	}
	if mp.NHidden <= 0 {
		return fmt.Errorf("snn.ModelParams: NHidden (%v) must be positive", mp.NHidden)
	}
	return nil
}

// StepsPerSample returns the number of Cycle calls per sample presentation.
func (mp *ModelParams) StepsPerSample() int {
	return int(mp.Time / mp.Dt)
}

// NewNetwork assembles and builds the standard three-layer model: an input
// relay, an excitatory hidden layer with recurrent lateral inhibition, and
// a supervisory label readout.  Both feedforward pathways are plastic under
// dopamine-modulated STDP with weight normalization; the readout pathway
// normalizes per hidden unit so each one commits its outgoing weight to
// few labels.  The adaptive threshold decay and the learning rates are
// adjusted for the hidden layer size.
func NewNetwork(name string, mp *ModelParams) (*Network, error) {
	if err := mp.Validate(); err != nil {
		return nil, err
	}
	nt := &Network{Nm: name, Method: mp.Method}

	nt.In = NewInputLayer("Input", []int{1, mp.NInput})
	nt.Exc = NewExcLayer("Hidden", []int{1, mp.NHidden})
	nt.SL = NewSLLayer("Output", []int{1, mp.NOutput})

	ex := nt.Exc
	ex.Act.Rest = 0
	ex.Act.Reset = 0
	ex.Act.Thresh = 120
	ex.Act.Tau = 100
	ex.Act.Refrac = 2
	ex.Act.LBoundOn = true
	ex.Act.LBound = -100
	ex.Theta.Plus, ex.Theta.Tau = NetworkConstBySize(mp.NHidden, mp.ThetaPlus, mp.ThetaTau)

	sl := nt.SL
	sl.Act.Rest = 0 // originally -60, adjusted for the recurrent inhibitory drive
	sl.Act.Reset = 0
	sl.Act.Thresh = 75
	sl.Act.Tau = 10

	nuPre, nuPost := LrateBySize(mp.NHidden, mp.NuPre, mp.NuPost)

	nt.InToExc = NewConn(nt.In, nt.Exc, prjn.NewFull())
	nt.InToExc.WtInit.Mean = float64(mp.InWtMax / 2)
	nt.InToExc.WtInit.Var = float64(mp.InWtMax / 2)
	nt.InToExc.WtLim.Set(0, mp.InWtMax)
	nt.InToExc.Norm.On = true
	nt.InToExc.Norm.Total = mp.NormScale * float32(mp.NInput) * mp.InWtMax
	nt.InToExc.Rule = &DaSTDP{NuPre: nuPre, NuPost: nuPost}

	nt.Recur = NewConn(nt.Exc, nt.Exc, prjn.NewFull()) // SelfCon off: no self-inhibition
	nt.Recur.WtInit.Mean = float64(-mp.Inh)
	nt.Recur.WtInit.Var = 0
	nt.Recur.WtLim.Set(-mp.Inh, 0)

	nt.ExcToSL = NewSLConn(nt.Exc, nt.SL, prjn.NewFull())
	nt.ExcToSL.WtInit.Mean = float64(mp.OutWtMax / 2)
	nt.ExcToSL.WtInit.Var = float64(mp.OutWtMax / 2)
	nt.ExcToSL.WtLim.Set(0, mp.OutWtMax)
	nt.ExcToSL.Norm.On = true
	nt.ExcToSL.Norm.Total = mp.NormScale * float32(mp.NOutput) * mp.OutWtMax
	nt.ExcToSL.Rule = &DaSTDP{NuPre: nuPre, NuPost: nuPost}

	nt.AddLayer(nt.In)
	nt.AddLayer(nt.Exc)
	nt.AddLayer(nt.SL)
	nt.AddPath(nt.InToExc)
	nt.AddPath(nt.Recur)
	nt.AddPath(nt.ExcToSL)

	for _, ly := range nt.Layers {
		ly.AsBase().Dt = mp.Dt
	}
	if err := nt.Build(); err != nil {
		return nil, err
	}

	li := latinhib.Params{}
	li.Defaults()
	li.Gi = mp.Inh
	copy(nt.Recur.Wts.Values, li.Wts(mp.NHidden).Values)

	return nt, nil
}
