// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package snn is the overall repository for a spiking neural network (SNN)
model based on current-based leaky integrate-and-fire neurons with adaptive
thresholds and reward-modulated spike-timing-dependent plasticity (DA-STDP),
implemented in the Go language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* snn: the core implementation: neuron state, excitatory and supervision
(SL) layer dynamics, dense synaptic connections with weight bounds and
normalization, the DA-STDP learning rule, and the three-layer network
assembly.

* biexp: bi-exponential (rise / decay) synaptic kernel parameters, with the
peak-normalization constant that makes the post-synaptic current kernel
amplitude independent of the two time constants.

* latinhib: construction of fixed lateral (recurrent) inhibitory weights
providing winner-take-some competition within a layer.

* examples/selective: a runnable command-line demo training the standard
model on a synthetic pattern-separation task.
*/
package snn
