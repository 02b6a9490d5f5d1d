// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/emergent/prjn"
	"github.com/emer/emergent/weights"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
	"github.com/goki/ki/indent"
	"github.com/goki/ki/ki"
	"github.com/goki/ki/kit"
)

// Pathway is the interface for a connection between two layers.
// *Conn implements it for the standard dense connection; *SLConn
// specializes the normalization axis for the readout connection.
type Pathway interface {
	// Name returns the name of the pathway, typically Send.Name() + "To" + Recv.Name()
	Name() string

	// SendLay returns the sending layer
	SendLay() Population

	// RecvLay returns the receiving layer
	RecvLay() Population

	// AsConn returns the underlying Conn, for uniform access to the base state
	AsConn() *Conn

	// Build validates the layer shapes, builds the connectivity pattern
	// and allocates and initializes the weights
	Build() error

	// InitWts (re)initializes the weights from the WtInit distribution,
	// zeroing any entries excluded by the connectivity pattern
	InitWts()

	// Compute accumulates this pathway's synaptic drive into out, which is
	// batch-major with length Recv batch * units.  The drive is computed
	// from the sending layer's current spike state; the pathway itself
	// holds no transient state.
	Compute(out []float32)

	// Update applies the pathway's learning rule, if any, then bounds the
	// weights to WtLim
	Update(ctx *RuleCtx)

	// Normalize rescales the weights so that each fan-in (or fan-out, for
	// SLConn) sums in absolute value to Norm.Total
	Normalize()

	// WriteWtsJSON writes weights in the standard JSON format
	WriteWtsJSON(w io.Writer, depth int)

	// SetWts sets weights from decoded weights.Prjn values
	SetWts(pw *weights.Prjn) error
}

// NormParams controls weight normalization for a pathway.
type NormParams struct {
	On    bool    `desc:"whether to renormalize the weights when Normalize is called"`
	Total float32 `viewif:"On" desc:"target sum of absolute weights per normalization axis"`
}

func (nr *NormParams) Defaults() {
	nr.On = false
	nr.Total = 1
}

func (nr *NormParams) Update() {
}

// WtInitParams are weight initialization parameters, using the generic
// random-parameter distribution specification.
type WtInitParams struct {
	erand.RndParams
}

func (wp *WtInitParams) Defaults() {
	wp.Mean = 0.5
	wp.Var = 0.5
	wp.Dist = erand.Uniform
}

///////////////////////////////////////////////////////////////////////
//  Conn

// snn.Conn is a dense connection between two layers, holding a full
// [send units, recv units] weight matrix masked by a connectivity pattern.
// Incoming drive to a receiving unit is the spike-weighted sum over the
// sending units.  A pathway may carry a learning rule, applied in Train
// mode, and an optional normalization of its fan-in weights.
//
// The default Conn normalizes per receiving unit (over the fan-in column).
type Conn struct {
	Nm     string       `desc:"name of the pathway"`
	Send   Population   `desc:"sending layer"`
	Recv   Population   `desc:"receiving layer"`
	Pat    prjn.Pattern `desc:"connectivity pattern; nil defaults to full connectivity"`
	WtInit WtInitParams `view:"inline" desc:"initial random weight distribution"`
	WtLim  minmax.F32   `view:"inline" desc:"hard bounds on the weights, applied after every learning update; infinities leave the corresponding side unbounded"`
	Norm   NormParams   `view:"inline" desc:"weight normalization parameters"`
	Rule   LearnRule    `view:"-" desc:"learning rule applied in Train mode, nil for a fixed pathway"`

	Wts  *etensor.Float32 `view:"-" desc:"weight matrix, shape [send units, recv units]"`
	Bias []float32        `view:"-" desc:"per-recv-unit bias added to the drive each step"`
	Cons *etensor.Bits    `view:"-" desc:"connectivity mask from Pat, indexed [recv, send]"`
}

var KiT_Conn = kit.Types.AddType(&Conn{}, ConnProps)

var ConnProps = ki.Props{}

// NewConn returns a new pathway connecting the given layers with the given
// pattern (nil for full connectivity), with default parameters.
func NewConn(send, recv Population, pat prjn.Pattern) *Conn {
	cn := &Conn{}
	cn.Init(send, recv, pat)
	return cn
}

// Init sets the layers and pattern and applies defaults.
// Split out from NewConn so derived types can reuse it.
func (cn *Conn) Init(send, recv Population, pat prjn.Pattern) {
	cn.Send = send
	cn.Recv = recv
	cn.Pat = pat
	cn.Nm = send.Name() + "To" + recv.Name()
	cn.Defaults()
}

func (cn *Conn) Defaults() {
	cn.WtInit.Defaults()
	cn.WtLim.Set(0, 1)
	cn.Norm.Defaults()
}

func (cn *Conn) Name() string         { return cn.Nm }
func (cn *Conn) SendLay() Population  { return cn.Send }
func (cn *Conn) RecvLay() Population  { return cn.Recv }
func (cn *Conn) AsConn() *Conn        { return cn }

// NSend returns the number of sending units.
func (cn *Conn) NSend() int { return cn.Send.Shape().Len() }

// NRecv returns the number of receiving units.
func (cn *Conn) NRecv() int { return cn.Recv.Shape().Len() }

// Validate checks that both layers are set and have non-empty shapes.
func (cn *Conn) Validate() error {
	if cn.Send == nil || cn.Recv == nil {
		return fmt.Errorf("snn.Conn %v: Send or Recv layer is nil", cn.Nm)
	}
	if cn.Send.Shape().Len() == 0 || cn.Recv.Shape().Len() == 0 {
		return fmt.Errorf("snn.Conn %v: Send or Recv layer has zero units -- layer shapes must be set before Build", cn.Nm)
	}
	return nil
}

// Build constructs the connectivity mask from the pattern and allocates and
// initializes the weight matrix.
func (cn *Conn) Build() error {
	if err := cn.Validate(); err != nil {
		return err
	}
	if cn.Pat == nil {
		cn.Pat = prjn.NewFull()
	}
	ssh := cn.Send.Shape()
	rsh := cn.Recv.Shape()
	_, _, cons := cn.Pat.Connect(ssh, rsh, cn.Send == cn.Recv)
	cn.Cons = cons
	cn.Wts = etensor.NewFloat32([]int{ssh.Len(), rsh.Len()}, nil, []string{"Send", "Recv"})
	cn.Bias = make([]float32, rsh.Len())
	cn.InitWts()
	return nil
}

// InitWts initializes the weights from the WtInit distribution.
// Entries excluded by the connectivity mask are zero and stay zero.
func (cn *Conn) InitWts() {
	ns := cn.NSend()
	nr := cn.NRecv()
	for si := 0; si < ns; si++ {
		for ri := 0; ri < nr; ri++ {
			if !cn.ConExists(si, ri) {
				cn.Wts.Values[si*nr+ri] = 0
				continue
			}
			cn.Wts.Values[si*nr+ri] = cn.WtLim.ClipVal(float32(cn.WtInit.Gen(-1)))
		}
	}
	for ri := range cn.Bias {
		cn.Bias[ri] = 0
	}
}

// ConExists returns whether the pattern connects the given send, recv units
// (flat indexes).
func (cn *Conn) ConExists(si, ri int) bool {
	if cn.Cons == nil {
		return true
	}
	return cn.Cons.Values.Index(ri*cn.NSend() + si)
}

// Wt returns the weight between the given send, recv units (flat indexes).
func (cn *Conn) Wt(si, ri int) float32 {
	return cn.Wts.Values[si*cn.NRecv()+ri]
}

// SetWt sets the weight between the given send, recv units (flat indexes).
// Returns an error for out-of-range indexes.
func (cn *Conn) SetWt(si, ri int, wt float32) error {
	if si < 0 || si >= cn.NSend() || ri < 0 || ri >= cn.NRecv() {
		err := fmt.Errorf("snn.Conn %v: SetWt indexes si: %v, ri: %v out of range %v x %v", cn.Nm, si, ri, cn.NSend(), cn.NRecv())
		log.Println(err)
		return err
	}
	cn.Wts.Values[si*cn.NRecv()+ri] = wt
	return nil
}

// Compute accumulates the synaptic drive from the sending layer's current
// spikes into out, batch-major over the receiving layer.  Sender-major
// iteration skips silent units, which dominate in sparse spike trains.
func (cn *Conn) Compute(out []float32) {
	sl := cn.Send.AsBase()
	ns := cn.NSend()
	nr := cn.NRecv()
	bs := sl.Batch()
	if len(out) != bs*nr {
		log.Printf("snn.Conn %v: Compute output length %v != batch * recv units %v\n", cn.Nm, len(out), bs*nr)
		return
	}
	for di := 0; di < bs; di++ {
		ob := out[di*nr : (di+1)*nr]
		for si := 0; si < ns; si++ {
			s := sl.Neurons[di*ns+si].Spike
			if s == 0 {
				continue
			}
			row := cn.Wts.Values[si*nr : (si+1)*nr]
			if s == 1 {
				for ri, w := range row {
					ob[ri] += w
				}
			} else {
				for ri, w := range row {
					ob[ri] += s * w
				}
			}
		}
		for ri, b := range cn.Bias {
			ob[ri] += b
		}
	}
}

// Update applies the learning rule, if any, then bounds the weights.
func (cn *Conn) Update(ctx *RuleCtx) {
	if cn.Rule == nil {
		return
	}
	cn.Rule.Apply(cn, ctx)
	cn.ClampWts()
}

// ClampWts applies the WtLim bounds to all weights.  Infinite bounds pass
// everything through on that side.
func (cn *Conn) ClampWts() {
	for i, w := range cn.Wts.Values {
		cn.Wts.Values[i] = cn.WtLim.ClipVal(w)
	}
}

// Normalize rescales each receiving unit's fan-in column of weights so its
// absolute sum equals Norm.Total.  Columns summing to zero are left alone.
func (cn *Conn) Normalize() {
	if !cn.Norm.On {
		return
	}
	ns := cn.NSend()
	nr := cn.NRecv()
	for ri := 0; ri < nr; ri++ {
		sum := float32(0)
		for si := 0; si < ns; si++ {
			sum += math32.Abs(cn.Wts.Values[si*nr+ri])
		}
		if sum == 0 {
			continue
		}
		sc := cn.Norm.Total / sum
		for si := 0; si < ns; si++ {
			cn.Wts.Values[si*nr+ri] *= sc
		}
	}
}

///////////////////////////////////////////////////////////////////////
//  Weights File

// WriteWtsJSON writes the weights from this pathway from the receiver-side
// perspective in a JSON text format.  We build in the indentation logic to
// make it much faster and more efficient.
func (cn *Conn) WriteWtsJSON(w io.Writer, depth int) {
	ns := cn.NSend()
	nr := cn.NRecv()
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"From\": %q,\n", cn.Send.Name())))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"MetaData\": {\n")))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"NormTotal\": \"%g\"\n", cn.Norm.Total)))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("},\n"))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Rs\": [\n")))
	depth++
	for ri := 0; ri < nr; ri++ {
		var sis []int
		for si := 0; si < ns; si++ {
			if cn.ConExists(si, ri) {
				sis = append(sis, si)
			}
		}
		nc := len(sis)
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("{\n"))
		depth++
		w.Write(indent.TabBytes(depth))
		w.Write([]byte(fmt.Sprintf("\"Ri\": %v,\n", ri)))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte(fmt.Sprintf("\"N\": %v,\n", nc)))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Si\": [ "))
		for ci, si := range sis {
			w.Write([]byte(fmt.Sprintf("%v", si)))
			if ci == nc-1 {
				w.Write([]byte(" "))
			} else {
				w.Write([]byte(", "))
			}
		}
		w.Write([]byte("],\n"))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Wt\": [ "))
		for ci, si := range sis {
			w.Write([]byte(strconv.FormatFloat(float64(cn.Wt(si, ri)), 'g', weights.Prec, 32)))
			if ci == nc-1 {
				w.Write([]byte(" "))
			} else {
				w.Write([]byte(", "))
			}
		}
		w.Write([]byte("]\n"))
		depth--
		w.Write(indent.TabBytes(depth))
		if ri == nr-1 {
			w.Write([]byte("}\n"))
		} else {
			w.Write([]byte("},\n"))
		}
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("]\n"))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("}")) // note: leave unterminated as outer loop needs to add , or just \n depending
}

// ReadWtsJSON reads the weights from this pathway in the JSON text format.
// This is for a set of weights saved for one pathway only; the
// network-level ReadWtsJSON reads into a separate structure and calls
// SetWts.
func (cn *Conn) ReadWtsJSON(r io.Reader) error {
	pw, err := weights.PrjnReadJSON(r)
	if err != nil {
		return err // note: already logged
	}
	return cn.SetWts(pw)
}

// SetWts sets the weights for this pathway from weights.Prjn decoded values.
func (cn *Conn) SetWts(pw *weights.Prjn) error {
	if pw.MetaData != nil {
		if nt, ok := pw.MetaData["NormTotal"]; ok {
			pv, _ := strconv.ParseFloat(nt, 32)
			cn.Norm.Total = float32(pv)
		}
	}
	var err error
	for i := range pw.Rs {
		pr := &pw.Rs[i]
		for si := range pr.Si {
			er := cn.SetWt(pr.Si[si], pr.Ri, pr.Wt[si])
			if er != nil {
				err = er
			}
		}
	}
	return err
}
