// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"testing"

	"github.com/chewxy/math32"
)

func newLearnConn(t *testing.T) (*InputLayer, *ExcLayer, *Conn) {
	send, recv, cn := newTestConn(t, 1, 1)
	cn.Rule = &DaSTDP{NuPre: 1e-4, NuPost: 1e-2}
	cn.SetWt(0, 0, 0.5)
	return send, recv, cn
}

// TestDaSTDPPotentiation: a post spike against a standing pre trace
// potentiates under reward.
func TestDaSTDPPotentiation(t *testing.T) {
	send, recv, cn := newLearnConn(t)
	send.Neurons[0].Trace = 0.8
	recv.Neurons[0].Spike = 1
	cn.Update(&RuleCtx{Da: 1})
	cor := float32(0.5) + 1e-2*0.8
	if math32.Abs(cn.Wt(0, 0)-cor) > 1.0e-6 {
		t.Errorf("wt: %v, cor: %v\n", cn.Wt(0, 0), cor)
	}
}

// TestDaSTDPDepression: a pre spike against a standing post trace
// depresses under reward.
func TestDaSTDPDepression(t *testing.T) {
	send, recv, cn := newLearnConn(t)
	send.Neurons[0].Spike = 1
	recv.Neurons[0].Trace = 0.8
	cn.Update(&RuleCtx{Da: 1})
	cor := float32(0.5) - 1e-4*0.8
	if math32.Abs(cn.Wt(0, 0)-cor) > 1.0e-6 {
		t.Errorf("wt: %v, cor: %v\n", cn.Wt(0, 0), cor)
	}
}

// TestDaSTDPReward: negative reward flips the sign of the update, zero
// reward gates it off entirely.
func TestDaSTDPReward(t *testing.T) {
	send, recv, cn := newLearnConn(t)
	send.Neurons[0].Trace = 0.8
	recv.Neurons[0].Spike = 1
	cn.Update(&RuleCtx{Da: -1})
	cor := float32(0.5) - 1e-2*0.8
	if math32.Abs(cn.Wt(0, 0)-cor) > 1.0e-6 {
		t.Errorf("punished wt: %v, cor: %v\n", cn.Wt(0, 0), cor)
	}

	send, recv, cn = newLearnConn(t)
	send.Neurons[0].Trace = 0.8
	recv.Neurons[0].Spike = 1
	cn.Update(&RuleCtx{Da: 0})
	if cn.Wt(0, 0) != 0.5 {
		t.Errorf("wt changed with zero reward: %v\n", cn.Wt(0, 0))
	}
	cn.Update(nil)
	if cn.Wt(0, 0) != 0.5 {
		t.Errorf("wt changed with nil context: %v\n", cn.Wt(0, 0))
	}
}

// TestDaSTDPBatchSum: updates sum over the batch rows.
func TestDaSTDPBatchSum(t *testing.T) {
	send, recv, cn := newLearnConn(t)
	send.SetBatchSize(2)
	recv.SetBatchSize(2)
	for di := 0; di < 2; di++ {
		send.Neurons[di].Trace = 0.8
		recv.Neurons[di].Spike = 1
	}
	cn.Update(&RuleCtx{Da: 1})
	cor := float32(0.5) + 2*1e-2*0.8
	if math32.Abs(cn.Wt(0, 0)-cor) > 1.0e-6 {
		t.Errorf("wt: %v, cor: %v\n", cn.Wt(0, 0), cor)
	}
}

// TestDaSTDPBounds: updates are clipped to the weight bounds.
func TestDaSTDPBounds(t *testing.T) {
	send, recv, cn := newLearnConn(t)
	cn.WtLim.Set(0, 1)
	cn.SetWt(0, 0, 0.999999)
	rule := cn.Rule.(*DaSTDP)
	rule.NuPost = 10
	send.Neurons[0].Trace = 1
	recv.Neurons[0].Spike = 1
	cn.Update(&RuleCtx{Da: 1})
	if cn.Wt(0, 0) != 1 {
		t.Errorf("wt not clipped to upper bound: %v\n", cn.Wt(0, 0))
	}

	rule.NuPre = 10
	send.Neurons[0].Spike = 1
	send.Neurons[0].Trace = 0
	recv.Neurons[0].Spike = 0
	recv.Neurons[0].Trace = 1
	cn.Update(&RuleCtx{Da: 1})
	if cn.Wt(0, 0) != 0 {
		t.Errorf("wt not clipped to lower bound: %v\n", cn.Wt(0, 0))
	}
}

// TestDaSTDPUnbounded: an infinite bound leaves that side unclipped.
func TestDaSTDPUnbounded(t *testing.T) {
	send, recv, cn := newLearnConn(t)
	cn.WtLim.Set(0, math32.Inf(1))
	cn.SetWt(0, 0, 0.5)
	rule := cn.Rule.(*DaSTDP)
	rule.NuPost = 10
	send.Neurons[0].Trace = 1
	recv.Neurons[0].Spike = 1
	cn.Update(&RuleCtx{Da: 1})
	if cn.Wt(0, 0) != 10.5 {
		t.Errorf("wt: %v, expected 10.5\n", cn.Wt(0, 0))
	}
}

func TestSizeTables(t *testing.T) {
	pl, tc := NetworkConstBySize(100, 0.05, 2e7)
	if pl != 0.05 || tc != 2e7 {
		t.Errorf("baseline size changed constants: %v, %v\n", pl, tc)
	}
	_, tc = NetworkConstBySize(6400, 0.05, 2e7)
	if tc <= 2e7 {
		t.Errorf("large size did not slow threshold decay: %v\n", tc)
	}
	pre, post := LrateBySize(100, 1e-4, 1e-2)
	if pre != 1e-4 || post != 1e-2 {
		t.Errorf("baseline size changed lrates: %v, %v\n", pre, post)
	}
	pre, post = LrateBySize(1600, 1e-4, 1e-2)
	if pre >= 1e-4 || post >= 1e-2 {
		t.Errorf("large size did not reduce lrates: %v, %v\n", pre, post)
	}
}
