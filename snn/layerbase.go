// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
)

// Population is the interface shared by all layer types, used by connections
// for shape and spike access, and by the network for generic iteration.
// Connections hold non-owning references to their source and target
// populations -- the network owns both.
type Population interface {
	// Name returns the name of the layer, unique within its network
	Name() string

	// Shape returns the layer's unit shape (2D, row-major)
	Shape() *etensor.Shape

	// AsBase returns the underlying LayerBase, for generic access to
	// neurons, traces, batch size and mode
	AsBase() *LayerBase

	// Build allocates all state and validates the parameters.
	// The layer shape must be set before calling.
	Build() error

	// Step runs one simulation time step, integrating the given input,
	// which must be batch-major with length Batch * NumUnits.
	// The resulting spikes are stored in the Spike variable of each neuron.
	Step(x []float32)

	// Reset resets the transient state variables (voltage, current, traces,
	// refractory counters) -- slow homeostatic state persists
	Reset()

	// SetBatchSize reallocates the batched state for a new batch size
	SetBatchSize(bs int)

	// RecomputeDecays recomputes all derived decay rates for a new dt, in msec
	RecomputeDecays(dt float32)
}

//////////////////////////////////////////////////////////////////////////////////////
//  LearnModes

// LearnModes are the operating modes of a population: learning (training)
// vs. inference.  The mode is checked at the top of each step: the
// excitatory layer only adapts its threshold while training, and the
// supervision layer only runs its own dynamics while *not* training.
type LearnModes int

var KiT_LearnModes = kit.Enums.AddEnum(LearnModesN, kit.NotBitFlag, nil)

func (ev LearnModes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *LearnModes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Train is learning mode: plasticity and threshold adaptation are active
	Train LearnModes = iota

	// Infer is inference mode: all state dynamics run but nothing adapts
	Infer

	LearnModesN
)

func (ev LearnModes) String() string {
	switch ev {
	case Train:
		return "Train"
	case Infer:
		return "Infer"
	}
	return fmt.Sprintf("LearnModes(%d)", int(ev))
}

//////////////////////////////////////////////////////////////////////////////////////
//  TraceParams

// TraceParams govern the slow spike trace used by the learning rule
// (Neuron.Trace) -- distinct from the fast kernel trace X that drives the
// synaptic current.
type TraceParams struct {
	Tau      float32 `def:"20" min:"1" desc:"time constant of spike trace decay, in msec"`
	Scale    float32 `def:"1" desc:"scaling factor for the spike trace -- the value a spike sets (or adds to) the trace"`
	Additive bool    `desc:"accumulate traces additively on each spike, instead of resetting to Scale"`

	Dt float32 `inactive:"+" view:"-" json:"-" xml:"-" desc:"rate = dt / Tau -- set in Update"`
}

func (tp *TraceParams) Defaults() {
	tp.Tau = 20
	tp.Scale = 1
	tp.Update(1)
}

// Update computes the derived decay rate for the given time step dt, in msec.
func (tp *TraceParams) Update(dt float32) {
	tp.Dt = dt / tp.Tau
}

// TraceFmSpike advances one trace value from its spike indicator.
func (tp *TraceParams) TraceFmSpike(trace, spike float32) float32 {
	trace -= tp.Dt * trace
	if spike > 0 {
		if tp.Additive {
			trace += tp.Scale * spike
		} else {
			trace = tp.Scale
		}
	}
	return trace
}

//////////////////////////////////////////////////////////////////////////////////////
//  LayerBase

// snn.LayerBase manages the structural elements common to all layer types:
// name, shape, batch size, operating mode, the neuron state slice, and the
// spike-trace bookkeeping.  The specific layer types embed it and add their
// own dynamics on top.
type LayerBase struct {
	Nm    string        `desc:"name of the layer -- this must be unique within the network"`
	Shp   etensor.Shape `desc:"shape of the layer, 2D row-major (Y then X)"`
	Btch  int           `inactive:"+" desc:"current batch size -- number of parallel trials -- state is reallocated when this changes"`
	Md    LearnModes    `desc:"current operating mode: Train or Infer"`
	Dt    float32       `def:"0.5" desc:"simulation time step, in msec -- set via RecomputeDecays, which bakes it into all derived rate constants"`
	Trace TraceParams   `view:"inline" desc:"spike trace parameters for the learning rule"`

	// Neurons are all the neuron state variables, batch-major:
	// neuron ni of batch element di is at index di*NumUnits()+ni
	Neurons []Neuron
}

func (ls *LayerBase) Name() string            { return ls.Nm }
func (ls *LayerBase) Label() string           { return ls.Nm }
func (ls *LayerBase) Shape() *etensor.Shape   { return &ls.Shp }
func (ls *LayerBase) AsBase() *LayerBase      { return ls }
func (ls *LayerBase) NumUnits() int           { return ls.Shp.Len() }
func (ls *LayerBase) Batch() int              { return ls.Btch }
func (ls *LayerBase) Mode() LearnModes        { return ls.Md }
func (ls *LayerBase) SetMode(md LearnModes)   { ls.Md = md }
func (ls *LayerBase) NumState() int           { return ls.Btch * ls.Shp.Len() }

// SetShape sets the layer shape; a 1D n is expressed as [1, n]
func (ls *LayerBase) SetShape(shape []int) {
	ls.Shp.SetShape(shape, nil, []string{"Y", "X"})
}

// BuildBase allocates the neuron state for batch size 1 and validates the
// shape.  Called by the layer types' Build methods.
func (ls *LayerBase) BuildBase() error {
	if ls.Shp.Len() == 0 {
		return fmt.Errorf("snn.Layer %v: no shape set -- call SetShape before Build", ls.Nm)
	}
	if ls.Btch == 0 {
		ls.Btch = 1
	}
	if ls.Dt == 0 {
		ls.Dt = 0.5
	}
	ls.Neurons = make([]Neuron, ls.NumState())
	return nil
}

// AllocState reallocates the neuron state slice for a new batch size.
// All state is zeroed -- the layer types re-initialize voltage afterward.
func (ls *LayerBase) AllocState(bs int) {
	ls.Btch = bs
	ls.Neurons = make([]Neuron, ls.NumState())
}

// TraceFmSpikes updates the learning-rule spike traces of all neurons from
// their current spike state.  Called at the end of every Step.
func (ls *LayerBase) TraceFmSpikes() {
	for ni := range ls.Neurons {
		nrn := &ls.Neurons[ni]
		nrn.Trace = ls.Trace.TraceFmSpike(nrn.Trace, nrn.Spike)
	}
}

// UnitVals fills in values of given variable name on unit for each unit in
// the layer (at batch element di), into given float32 slice (only resized
// if not big enough).  Returns error on invalid var name.
func (ls *LayerBase) UnitVals(vals *[]float32, varNm string, di int) error {
	vidx, err := NeuronVarIdxByName(varNm)
	if err != nil {
		return err
	}
	nn := ls.NumUnits()
	if *vals == nil || cap(*vals) < nn {
		*vals = make([]float32, nn)
	} else if len(*vals) < nn {
		*vals = (*vals)[0:nn]
	}
	for ni := 0; ni < nn; ni++ {
		(*vals)[ni] = ls.Neurons[di*nn+ni].VarByIndex(vidx)
	}
	return nil
}

// SpikesToBuf copies the current spike state of all neurons, batch-major,
// into the given buffer, reallocating if needed, and returns it.
// This is the spike vector consumed by outgoing connections.
func (ls *LayerBase) SpikesToBuf(buf []float32) []float32 {
	ns := ls.NumState()
	if cap(buf) < ns {
		buf = make([]float32, ns)
	}
	buf = buf[:ns]
	for ni := range ls.Neurons {
		buf[ni] = ls.Neurons[ni].Spike
	}
	return buf
}
