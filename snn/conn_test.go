// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"bytes"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/prjn"
)

func newTestConn(t *testing.T, ns, nr int) (*InputLayer, *ExcLayer, *Conn) {
	send := NewInputLayer("Input", []int{1, ns})
	if err := send.Build(); err != nil {
		t.Fatalf("Build send: %v", err)
	}
	recv := newTestExcLayer(t, nr)
	cn := NewConn(send, recv, prjn.NewFull())
	if err := cn.Build(); err != nil {
		t.Fatalf("Build conn: %v", err)
	}
	return send, recv, cn
}

func TestConnBuild(t *testing.T) {
	_, _, cn := newTestConn(t, 4, 3)
	if cn.Wts.Dim(0) != 4 || cn.Wts.Dim(1) != 3 {
		t.Fatalf("weight shape: %v x %v\n", cn.Wts.Dim(0), cn.Wts.Dim(1))
	}
	for i, w := range cn.Wts.Values {
		if w < 0 || w > 1 {
			t.Errorf("initial weight %v out of bounds: %v\n", i, w)
		}
	}
	if len(cn.Bias) != 3 {
		t.Errorf("bias length: %v\n", len(cn.Bias))
	}
}

func TestConnBuildErrs(t *testing.T) {
	cn := &Conn{}
	if err := cn.Build(); err == nil {
		t.Errorf("expected error for nil layers\n")
	}
	send := NewInputLayer("Input", []int{0, 0})
	recv := NewInputLayer("Recv", []int{1, 2})
	cn = NewConn(send, recv, nil)
	if err := cn.Build(); err == nil {
		t.Errorf("expected error for empty send shape\n")
	}
}

// TestRecurPattern checks that a same-layer pathway excludes the
// self-connections from its pattern and weights.
func TestRecurPattern(t *testing.T) {
	ly := newTestExcLayer(t, 3)
	cn := NewConn(ly, ly, prjn.NewFull())
	cn.WtInit.Mean = -60
	cn.WtInit.Var = 0
	cn.WtLim.Set(-60, 0)
	if err := cn.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for si := 0; si < 3; si++ {
		for ri := 0; ri < 3; ri++ {
			w := cn.Wt(si, ri)
			if si == ri {
				if cn.ConExists(si, ri) {
					t.Errorf("self connection present at %v\n", si)
				}
				if w != 0 {
					t.Errorf("self weight nonzero at %v: %v\n", si, w)
				}
			} else if w != -60 {
				t.Errorf("lateral weight at %v,%v: %v\n", si, ri, w)
			}
		}
	}
}

// TestConnCompute checks the spike-weighted drive, including the one
// spike / no spike paths and the bias.
func TestConnCompute(t *testing.T) {
	send, _, cn := newTestConn(t, 2, 2)
	cn.SetWt(0, 0, 0.5)
	cn.SetWt(0, 1, 1)
	cn.SetWt(1, 0, 0.25)
	cn.SetWt(1, 1, 0)
	cn.Bias[1] = 0.125

	send.Neurons[0].Spike = 1
	send.Neurons[1].Spike = 0
	out := make([]float32, 2)
	cn.Compute(out)
	if out[0] != 0.5 || out[1] != 1.125 {
		t.Errorf("drive: %v\n", out)
	}

	send.Neurons[1].Spike = 1
	out[0], out[1] = 0, 0
	cn.Compute(out)
	if out[0] != 0.75 || out[1] != 1.125 {
		t.Errorf("drive: %v\n", out)
	}

	// accumulates on top of existing drive from other pathways
	cn.Compute(out)
	if out[0] != 1.5 || out[1] != 2.25 {
		t.Errorf("accumulated drive: %v\n", out)
	}
}

// TestNormalizePost checks the default per-receiving-unit fan-in
// normalization, including that all-zero columns are skipped.
func TestNormalizePost(t *testing.T) {
	_, _, cn := newTestConn(t, 3, 2)
	cn.Norm.On = true
	cn.Norm.Total = 1.5
	for si := 0; si < 3; si++ {
		cn.SetWt(si, 0, float32(si+1)) // column sum 6
		cn.SetWt(si, 1, 0)
	}
	cn.Normalize()
	for si := 0; si < 3; si++ {
		cor := float32(si+1) * 1.5 / 6
		if math32.Abs(cn.Wt(si, 0)-cor) > difTol {
			t.Errorf("wt %v,0: %v, cor: %v\n", si, cn.Wt(si, 0), cor)
		}
		if cn.Wt(si, 1) != 0 {
			t.Errorf("zero column rescaled: %v\n", cn.Wt(si, 1))
		}
	}
	sum := float32(0)
	for si := 0; si < 3; si++ {
		sum += cn.Wt(si, 0)
	}
	if math32.Abs(sum-1.5) > difTol {
		t.Errorf("column sum: %v\n", sum)
	}
}

// TestNormalizePre checks the readout pathway's per-sending-unit fan-out
// normalization.
func TestNormalizePre(t *testing.T) {
	send := newTestExcLayer(t, 2)
	recv := NewSLLayer("Output", []int{1, 3})
	if err := recv.Build(); err != nil {
		t.Fatalf("Build recv: %v", err)
	}
	cn := NewSLConn(send, recv, prjn.NewFull())
	cn.WtLim.Set(0, 8)
	if err := cn.Build(); err != nil {
		t.Fatalf("Build conn: %v", err)
	}
	cn.Norm.On = true
	cn.Norm.Total = 2.4
	for ri := 0; ri < 3; ri++ {
		cn.SetWt(0, ri, float32(ri+1)) // row sum 6
		cn.SetWt(1, ri, 0)
	}
	cn.Normalize()
	sum := float32(0)
	for ri := 0; ri < 3; ri++ {
		sum += cn.Wt(0, ri)
	}
	if math32.Abs(sum-2.4) > difTol {
		t.Errorf("row sum: %v\n", sum)
	}
	for ri := 0; ri < 3; ri++ {
		if cn.Wt(1, ri) != 0 {
			t.Errorf("zero row rescaled: %v\n", cn.Wt(1, ri))
		}
	}
}

func TestSetWtErrs(t *testing.T) {
	_, _, cn := newTestConn(t, 2, 2)
	if err := cn.SetWt(2, 0, 1); err == nil {
		t.Errorf("expected error for send index out of range\n")
	}
	if err := cn.SetWt(0, -1, 1); err == nil {
		t.Errorf("expected error for recv index out of range\n")
	}
}

// TestConnWtsJSON round-trips one pathway's weights through the JSON
// format.
func TestConnWtsJSON(t *testing.T) {
	_, _, cn := newTestConn(t, 3, 2)
	for si := 0; si < 3; si++ {
		for ri := 0; ri < 2; ri++ {
			cn.SetWt(si, ri, float32(si)*0.1+float32(ri)*0.01)
		}
	}
	var buf bytes.Buffer
	cn.WriteWtsJSON(&buf, 0)

	_, _, cn2 := newTestConn(t, 3, 2)
	if err := cn2.ReadWtsJSON(&buf); err != nil {
		t.Fatalf("ReadWtsJSON: %v", err)
	}
	for si := 0; si < 3; si++ {
		for ri := 0; ri < 2; ri++ {
			if math32.Abs(cn2.Wt(si, ri)-cn.Wt(si, ri)) > 1.0e-6 {
				t.Errorf("wt %v,%v: %v != %v\n", si, ri, cn2.Wt(si, ri), cn.Wt(si, ri))
			}
		}
	}
}
