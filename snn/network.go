// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/emer/emergent/weights"
	"github.com/goki/ki/indent"
	"github.com/goki/ki/ki"
	"github.com/goki/ki/kit"
)

// TrainMethods are the supported training regimes for the model.
type TrainMethods int32

//go:generate stringer -type=TrainMethods

var KiT_TrainMethods = kit.Enums.AddEnum(TrainMethodsN, kit.NotBitFlag, nil)

func (ev TrainMethods) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *TrainMethods) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Simultaneous trains the input and readout connections at the same
	// time, within the same sample presentations.
	Simultaneous TrainMethods = iota

	// LayerByLayer trains the input connection to convergence first, then
	// freezes it and trains the readout connection.
	LayerByLayer

	TrainMethodsN
)

func (ev TrainMethods) String() string {
	switch ev {
	case Simultaneous:
		return "Simultaneous"
	case LayerByLayer:
		return "LayerByLayer"
	}
	return fmt.Sprintf("TrainMethods(%d)", ev)
}

// snn.Network is the three-layer spiking model: an input relay layer, an
// excitatory hidden layer with recurrent lateral inhibition, and a
// supervisory label readout layer.
//
// Synaptic transmission has a one-step delay: each Cycle first computes
// every pathway's drive from the spike state left by the previous cycle,
// then steps all the layers.  In Train mode the plastic pathways are
// updated after the layers, using the reward signal in the RuleCtx.
type Network struct {
	Nm       string            `desc:"name of the network"`
	MetaData map[string]string `desc:"optional metadata saved with the weights"`
	Method   TrainMethods      `desc:"training regime this network is intended for; recorded here and in saved weights for the harness, not used by Cycle itself"`

	Layers []Population `desc:"all layers in update order"`
	Paths  []Pathway    `desc:"all pathways"`

	// the named components of the standard model assembly:
	In      *InputLayer `view:"-" desc:"input spike relay layer"`
	Exc     *ExcLayer   `view:"-" desc:"excitatory hidden layer"`
	SL      *SLLayer    `view:"-" desc:"supervisory label readout layer"`
	InToExc *Conn       `view:"-" desc:"plastic input pathway"`
	Recur   *Conn       `view:"-" desc:"fixed recurrent lateral inhibition on the hidden layer"`
	ExcToSL *SLConn     `view:"-" desc:"plastic readout pathway"`

	layMap map[string]Population
	drives [][]float32 // per-layer synaptic drive accumulators, parallel to Layers
}

var KiT_Network = kit.Types.AddType(&Network{}, NetworkProps)

var NetworkProps = ki.Props{}

func (nt *Network) Name() string    { return nt.Nm }
func (nt *Network) NLayers() int    { return len(nt.Layers) }
func (nt *Network) NPaths() int     { return len(nt.Paths) }

// LayerByName returns the layer with the given name, nil if not found.
// See LayerByNameTry for a version with error checking.
func (nt *Network) LayerByName(name string) Population {
	if nt.layMap == nil {
		nt.MakeLayMap()
	}
	return nt.layMap[name]
}

// LayerByNameTry returns the layer with the given name, error if not found.
func (nt *Network) LayerByNameTry(name string) (Population, error) {
	ly := nt.LayerByName(name)
	if ly == nil {
		err := fmt.Errorf("layer named: %v not found in Network: %v", name, nt.Nm)
		log.Println(err)
		return ly, err
	}
	return ly, nil
}

// MakeLayMap updates the layer map based on current layers.
func (nt *Network) MakeLayMap() {
	nt.layMap = make(map[string]Population, len(nt.Layers))
	for _, ly := range nt.Layers {
		nt.layMap[ly.Name()] = ly
	}
}

// AddLayer adds the given layer to the network, in update order.
func (nt *Network) AddLayer(ly Population) {
	nt.Layers = append(nt.Layers, ly)
	nt.layMap = nil
}

// AddPath adds the given pathway to the network.
func (nt *Network) AddPath(pt Pathway) {
	nt.Paths = append(nt.Paths, pt)
}

// Build constructs all the layers and pathways and allocates the drive
// accumulators.  Must be called before running, and again after any change
// to layer shapes.
func (nt *Network) Build() error {
	nt.MakeLayMap()
	var errs []error
	for _, ly := range nt.Layers {
		if err := ly.Build(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, pt := range nt.Paths {
		if err := pt.Build(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		for _, err := range errs {
			log.Println(err)
		}
		return errs[0]
	}
	nt.allocDrives()
	return nil
}

func (nt *Network) allocDrives() {
	nt.drives = make([][]float32, len(nt.Layers))
	for li, ly := range nt.Layers {
		nt.drives[li] = make([]float32, ly.AsBase().NumState())
	}
}

func (nt *Network) driveFor(ly Population) []float32 {
	for li, l := range nt.Layers {
		if l == ly {
			return nt.drives[li]
		}
	}
	return nil
}

// Cycle runs one simulation step.  in is the external spike input for the
// input layer, batch-major, length batch * input units.  ctx carries the
// reward signal for learning; it can be nil outside of Train mode.
//
// All pathway drives are computed from the previous step's spikes before
// any layer is stepped, giving every synapse a uniform one-step delay.
func (nt *Network) Cycle(in []float32, ctx *RuleCtx) {
	for li := range nt.drives {
		dr := nt.drives[li]
		for i := range dr {
			dr[i] = 0
		}
	}
	for _, pt := range nt.Paths {
		pt.Compute(nt.driveFor(pt.RecvLay()))
	}
	for li, ly := range nt.Layers {
		if _, ok := ly.(*InputLayer); ok {
			ly.Step(in)
		} else {
			ly.Step(nt.drives[li])
		}
	}
	if len(nt.Layers) > 0 && nt.Layers[0].AsBase().Mode() == Train {
		for _, pt := range nt.Paths {
			pt.Update(ctx)
		}
	}
}

// Normalize renormalizes the weights of all pathways that have
// normalization on.  Typically called once per sample presentation.
func (nt *Network) Normalize() {
	for _, pt := range nt.Paths {
		pt.Normalize()
	}
}

// InitWts reinitializes the weights of all pathways.
func (nt *Network) InitWts() {
	for _, pt := range nt.Paths {
		pt.InitWts()
	}
}

// Reset resets the transient state of all layers (voltages, currents,
// traces, spikes).  Adaptive thresholds and weights persist.
func (nt *Network) Reset() {
	for _, ly := range nt.Layers {
		ly.Reset()
	}
}

// SetMode sets the Train / Infer mode of all layers.
func (nt *Network) SetMode(md LearnModes) {
	for _, ly := range nt.Layers {
		ly.AsBase().SetMode(md)
	}
}

// SetBatchSize reallocates all batched layer state for the given batch
// size, and resizes the drive accumulators to match.  Weights and adaptive
// thresholds are untouched.
func (nt *Network) SetBatchSize(bs int) {
	for _, ly := range nt.Layers {
		ly.SetBatchSize(bs)
	}
	nt.allocDrives()
}

// RecomputeDecays rederives all rate constants of all layers for a new
// integration time step dt, in milliseconds.
func (nt *Network) RecomputeDecays(dt float32) {
	for _, ly := range nt.Layers {
		ly.RecomputeDecays(dt)
	}
}

// SizeReport returns a string reporting the size of each layer and pathway
// in the network, and total memory footprint.
func (nt *Network) SizeReport() string {
	var b strings.Builder
	neur := 0
	neurMem := 0
	syn := 0
	synMem := 0
	for _, ly := range nt.Layers {
		lb := ly.AsBase()
		nn := len(lb.Neurons)
		nmem := nn * 4 * len(NeuronVars)
		neur += nn
		neurMem += nmem
		fmt.Fprintf(&b, "%14s:\t Neurons: %d\t NeurMem: %v \t Sends To:\n", lb.Nm, nn, (datasize.ByteSize)(nmem).HumanReadable())
		for _, pt := range nt.Paths {
			if pt.SendLay() != ly {
				continue
			}
			cn := pt.AsConn()
			ns := cn.Wts.Len()
			pmem := ns * 4
			syn += ns
			synMem += pmem
			fmt.Fprintf(&b, "\t%14s:\t Syns: %d\t SynMem: %v\n", pt.RecvLay().Name(), ns, (datasize.ByteSize)(pmem).HumanReadable())
		}
	}
	fmt.Fprintf(&b, "\n\n%14s:\t Neurons: %d\t NeurMem: %v \t Syns: %d \t SynMem: %v\n", nt.Nm, neur, (datasize.ByteSize)(neurMem).HumanReadable(), syn, (datasize.ByteSize)(synMem).HumanReadable())
	return b.String()
}

///////////////////////////////////////////////////////////////////////
//  Weights File

// SaveWtsJSON saves network weights (and any other state that adapts with
// learning, e.g. the adaptive thresholds) to a JSON-formatted file.  If
// filename has .gz extension, then the file is gzip compressed.
func (nt *Network) SaveWtsJSON(filename string) error {
	fp, err := os.Create(filename)
	defer fp.Close()
	if err != nil {
		log.Println(err)
		return err
	}
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr := gzip.NewWriter(fp)
		defer gzr.Close()
		nt.WriteWtsJSON(gzr)
	} else {
		nt.WriteWtsJSON(fp)
	}
	return nil
}

// OpenWtsJSON opens network weights (and any other state that adapts with
// learning) from a JSON-formatted file.  If filename has .gz extension,
// then the file is gzip uncompressed.
func (nt *Network) OpenWtsJSON(filename string) error {
	fp, err := os.Open(filename)
	defer fp.Close()
	if err != nil {
		log.Println(err)
		return err
	}
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr, err := gzip.NewReader(fp)
		defer gzr.Close()
		if err != nil {
			log.Println(err)
			return err
		}
		return nt.ReadWtsJSON(gzr)
	}
	return nt.ReadWtsJSON(fp)
}

// WriteWtsJSON writes the weights from this network from the receiver-side
// perspective in a JSON text format.  We build in the indentation logic to
// make it much faster and more efficient.
func (nt *Network) WriteWtsJSON(w io.Writer) {
	depth := 0
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Network\": %q,\n", nt.Nm))) // note: can't use \n in `` so need "
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"MetaData\": {\n")))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Method\": %q\n", nt.Method.String())))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("},\n"))
	w.Write(indent.TabBytes(depth))
	nl := len(nt.Layers)
	if nl == 0 {
		w.Write([]byte("\"Layers\": null\n"))
	} else {
		w.Write([]byte("\"Layers\": [\n"))
		depth++
		for li, ly := range nt.Layers {
			nt.layerWriteWtsJSON(ly, w, depth)
			if li == nl-1 {
				w.Write([]byte("\n"))
			} else {
				w.Write([]byte(",\n"))
			}
		}
		depth--
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("]\n"))
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("}\n"))
}

// layerWriteWtsJSON writes one layer's record: its adapting unit-level
// state (the adaptive thresholds, for ExcLayer) and the weights of all its
// receiving pathways.
func (nt *Network) layerWriteWtsJSON(ly Population, w io.Writer, depth int) {
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Layer\": %q,\n", ly.Name())))
	if el, ok := ly.(*ExcLayer); ok {
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Units\": {\n"))
		depth++
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Theta\": [ "))
		nth := len(el.Thetas)
		for ti, th := range el.Thetas {
			w.Write([]byte(fmt.Sprintf("%g", th)))
			if ti == nth-1 {
				w.Write([]byte(" "))
			} else {
				w.Write([]byte(", "))
			}
		}
		w.Write([]byte("]\n"))
		depth--
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("},\n"))
	}
	w.Write(indent.TabBytes(depth))
	var rps []Pathway
	for _, pt := range nt.Paths {
		if pt.RecvLay() == ly {
			rps = append(rps, pt)
		}
	}
	np := len(rps)
	if np == 0 {
		w.Write([]byte(fmt.Sprintf("\"Prjns\": null\n")))
	} else {
		w.Write([]byte(fmt.Sprintf("\"Prjns\": [\n")))
		depth++
		for pi, pt := range rps {
			pt.WriteWtsJSON(w, depth) // this leaves the pathway unterminated
			if pi == np-1 {
				w.Write([]byte("\n"))
			} else {
				w.Write([]byte(",\n"))
			}
		}
		depth--
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("]\n"))
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("}")) // note: leave unterminated as outer loop needs to add , or just \n depending
}

// ReadWtsJSON reads network weights from the receiver-side perspective in a
// JSON text format.  Reads the entire file into a temporary
// weights.Weights structure that is then passed to the layers and pathways
// using the SetWts method.
func (nt *Network) ReadWtsJSON(r io.Reader) error {
	nw, err := weights.NetReadJSON(r)
	if err != nil {
		return err // note: already logged
	}
	err = nt.SetWts(nw)
	if err != nil {
		log.Println(err)
	}
	return err
}

// SetWts sets the weights for this network from weights.Network decoded
// values.
func (nt *Network) SetWts(nw *weights.Network) error {
	var err error
	if nw.Network != "" {
		nt.Nm = nw.Network
	}
	if nw.MetaData != nil {
		if nt.MetaData == nil {
			nt.MetaData = nw.MetaData
		} else {
			for mk, mv := range nw.MetaData {
				nt.MetaData[mk] = mv
			}
		}
		if md, ok := nw.MetaData["Method"]; ok {
			for ev := Simultaneous; ev < TrainMethodsN; ev++ {
				if ev.String() == md {
					nt.Method = ev
				}
			}
		}
	}
	for li := range nw.Layers {
		lw := &nw.Layers[li]
		ly, er := nt.LayerByNameTry(lw.Layer)
		if er != nil {
			err = er
			continue
		}
		if el, ok := ly.(*ExcLayer); ok && lw.Units != nil {
			if ths, ok := lw.Units["Theta"]; ok {
				nc := len(el.Thetas)
				if len(ths) < nc {
					nc = len(ths)
				}
				copy(el.Thetas[:nc], ths[:nc])
			}
		}
		for pi := range lw.Prjns {
			pw := &lw.Prjns[pi]
			for _, pt := range nt.Paths {
				if pt.RecvLay() != ly || pt.SendLay().Name() != pw.From {
					continue
				}
				if er := pt.SetWts(pw); er != nil {
					err = er
				}
			}
		}
	}
	return err
}
