// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

// snn.Time contains the timing state for running a model.
type Time struct {

	// accumulated amount of simulation time the network has been running,
	// in milliseconds.
	Time float32

	// cycle counter: number of simulation steps run on the current sample
	// presentation, typically 0 to time/dt - 1.
	Cycle int

	// total cycle count, incrementing continuously from whenever it was
	// last reset.
	CycleTot int

	// amount of time to increment per cycle, in milliseconds.  This is the
	// integration step dt of all the layer dynamics.
	TimePerCyc float32 `def:"0.5"`
}

// NewTime returns a new Time struct with default parameters
func NewTime() *Time {
	tm := &Time{}
	tm.Defaults()
	return tm
}

// Defaults sets default values
func (tm *Time) Defaults() {
	tm.TimePerCyc = 0.5
}

// Reset resets the counters all back to zero
func (tm *Time) Reset() {
	tm.Time = 0
	tm.Cycle = 0
	tm.CycleTot = 0
	if tm.TimePerCyc == 0 {
		tm.Defaults()
	}
}

// SampleStart starts a new sample presentation, resetting the per-sample
// cycle counter.
func (tm *Time) SampleStart() {
	tm.Cycle = 0
}

// CycleInc increments at the cycle level
func (tm *Time) CycleInc() {
	tm.Cycle++
	tm.CycleTot++
	tm.Time += tm.TimePerCyc
}
