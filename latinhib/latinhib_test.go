// Copyright (c) 2024, The Biospike Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latinhib

import "testing"

func TestWts(t *testing.T) {
	lp := Params{}
	lp.Defaults()
	lp.Gi = 60

	n := 5
	w := lp.Wts(n)
	if w.Dim(0) != n || w.Dim(1) != n {
		t.Fatalf("wrong shape: %v x %v", w.Dim(0), w.Dim(1))
	}
	for si := 0; si < n; si++ {
		for ri := 0; ri < n; ri++ {
			wt := w.Values[si*n+ri]
			if si == ri {
				if wt != 0 {
					t.Errorf("diagonal wt at %v should be 0, got %v", si, wt)
				}
			} else if wt != -60 {
				t.Errorf("off-diagonal wt at %v,%v should be -60, got %v", si, ri, wt)
			}
		}
	}
}

func TestWtsSelfCon(t *testing.T) {
	lp := Params{}
	lp.Defaults()
	lp.Gi = 10
	lp.SelfCon = true

	w := lp.Wts(3)
	for i := range w.Values {
		if w.Values[i] != -10 {
			t.Errorf("wt at flat idx %v should be -10, got %v", i, w.Values[i])
		}
	}
}
