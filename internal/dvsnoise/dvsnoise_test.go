// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dvsnoise

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-aer/daq/aer"
)

func TestTrainer(t *testing.T) {
	tr := NewTrainer(10)
	feed := []struct {
		x, y uint16
		n    int
	}{
		{3, 7, 5},
		{1, 2, 3},
		{9, 9, 2},
	}
	for _, f := range feed {
		for i := 0; i < f.n; i++ {
			tr.Observe(aer.Polarity{X: f.x, Y: f.y, On: true})
		}
	}
	if !tr.Done() {
		t.Fatalf("trainer not done after %d events", 10)
	}

	// extra events after completion are ignored.
	tr.Observe(aer.Polarity{X: 0, Y: 0})

	want := []Pixel{
		{X: 3, Y: 7, Count: 5},
		{X: 1, Y: 2, Count: 3},
	}
	if diff := cmp.Diff(want, tr.Hottest(2)); diff != "" {
		t.Fatalf("invalid hottest pixels: (-want +got)\n%s", diff)
	}

	all := tr.Hottest(100)
	if got, want := len(all), 3; got != want {
		t.Fatalf("invalid pixel count: got=%d, want=%d", got, want)
	}
}

func TestTrainerTieBreak(t *testing.T) {
	tr := NewTrainer(4)
	tr.Observe(aer.Polarity{X: 5, Y: 1})
	tr.Observe(aer.Polarity{X: 2, Y: 1})
	tr.Observe(aer.Polarity{X: 2, Y: 0})
	tr.Observe(aer.Polarity{X: 9, Y: 3})

	want := []Pixel{
		{X: 2, Y: 0, Count: 1},
		{X: 2, Y: 1, Count: 1},
		{X: 5, Y: 1, Count: 1},
		{X: 9, Y: 3, Count: 1},
	}
	if diff := cmp.Diff(want, tr.Hottest(4)); diff != "" {
		t.Fatalf("invalid tie-break order: (-want +got)\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	f := NewFilter([]Pixel{{X: 3, Y: 7}, {X: 1, Y: 2}})
	if !f.Reject(aer.Polarity{X: 3, Y: 7}) {
		t.Fatalf("hot pixel not rejected")
	}
	if f.Reject(aer.Polarity{X: 7, Y: 3}) {
		t.Fatalf("cold pixel rejected")
	}
}
