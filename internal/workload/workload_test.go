// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workload

import (
	"reflect"
	"testing"
)

func TestFill(t *testing.T) {
	if got, want := Fill(4), []uint64{0, 1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Fill(4) = %v, want %v", got, want)
	}
	if got := Fill(0); len(got) != 0 {
		t.Errorf("Fill(0) = %v, want empty", got)
	}
}

func TestSequentialSum(t *testing.T) {
	for _, n := range []int{0, 1, 2, 1 << 10} {
		want := uint64(n*(n-1)) / 2
		if got := SequentialSum(Fill(n)); got != want {
			t.Errorf("SequentialSum(Fill(%d)) = %d, want %d", n, got, want)
		}
	}
}

func TestRandomSum(t *testing.T) {
	for _, test := range []struct {
		xs   []uint64
		want uint64
	}{
		{nil, 0},
		{[]uint64{7}, 7},
		// Indexes 2, 3, 0, 1.
		{[]uint64{1, 10, 100, 1000}, 1111},
		{Fill(8), 28},
		{Fill(1000), 503044},
	} {
		if got := RandomSum(test.xs); got != test.want {
			t.Errorf("RandomSum(%d elements) = %d, want %d", len(test.xs), got, test.want)
		}
	}
}

func TestPatterns(t *testing.T) {
	if got, want := Names(), []string{"random", "sequential"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	xs := Fill(16)
	for name, k := range Patterns {
		if got := k(xs); got == 0 {
			t.Errorf("%s kernel returned 0", name)
		}
	}
}

func BenchmarkSequentialSum(b *testing.B) {
	xs := Fill(1 << 16)
	for i := 0; i < b.N; i++ {
		SequentialSum(xs)
	}
}

func BenchmarkRandomSum(b *testing.B) {
	xs := Fill(1 << 16)
	for i := 0; i < b.N; i++ {
		RandomSum(xs)
	}
}
