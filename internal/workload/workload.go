// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workload contains the memory access kernels measured by
// cachebench.
package workload

import "sort"

// A Kernel sums the elements of xs in some order.
type Kernel func(xs []uint64) uint64

// Patterns maps access pattern names to kernels.
var Patterns = map[string]Kernel{
	"sequential": SequentialSum,
	"random":     RandomSum,
}

// Names returns the names of Patterns in sorted order.
func Names() []string {
	names := make([]string, 0, len(Patterns))
	for name := range Patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fill returns the vector [0, 1, ..., n-1].
func Fill(n int) []uint64 {
	xs := make([]uint64, n)
	for i := range xs {
		xs[i] = uint64(i)
	}
	return xs
}

// SequentialSum sums xs front to back.
//
//go:noinline
func SequentialSum(xs []uint64) uint64 {
	var sum uint64
	for _, x := range xs {
		sum += x
	}
	return sum
}

// RandomSum makes len(xs) loads from xs at indexes drawn from a linear
// congruential generator and returns their sum. The sequence is fixed,
// so results are reproducible.
//
//go:noinline
func RandomSum(xs []uint64) uint64 {
	n := uint64(len(xs))
	seed := uint64(12345)
	var sum uint64
	for i := uint64(0); i < n; i++ {
		seed = seed*1103515245 + 12345
		sum += xs[seed%n]
	}
	return sum
}
