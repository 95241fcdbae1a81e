// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perfevent counts hardware events for the calling thread
// using the Linux perf_event_open interface.
package perfevent

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// ErrUnsupported is returned by NewGroup on systems without perf events.
var ErrUnsupported = errors.New("perfevent: not supported on this system")

// WallClock is the name of the elapsed-time entry in every Reading.
const WallClock = "wall_clock_ms"

// An Event names a counter to open.
type Event struct {
	Name   string
	Type   uint32
	Config uint64
}

// CacheConfig returns the config of a PERF_TYPE_HW_CACHE event for the
// given cache, operation and result.
func CacheConfig(cache, op, result uint64) uint64 {
	return cache | op<<8 | result<<16
}

// A Reading maps event names to counts, plus WallClock in
// milliseconds. Events that never ran are absent.
type Reading map[string]float64

// scale estimates the full count of an event that was multiplexed with
// others and only ran for part of the time it was enabled.
func scale(value, enabled, running uint64) (float64, bool) {
	if running == 0 {
		return 0, false
	}
	return float64(value) * (float64(enabled) / float64(running)), true
}

// IsAMDFamily1AhModel44h reports whether cpuinfo, in the format of
// /proc/cpuinfo, describes an AMD family 1Ah model 44h processor.
func IsAMDFamily1AhModel44h(cpuinfo io.Reader) (bool, error) {
	var family, model, amd bool
	s := bufio.NewScanner(cpuinfo)
	for s.Scan() {
		key, val, ok := strings.Cut(s.Text(), ":")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch key {
		case "cpu family":
			n, err := strconv.Atoi(val)
			if err != nil || n != 0x1a {
				return false, nil
			}
			family = true
		case "model":
			n, err := strconv.Atoi(val)
			if err != nil || n != 0x44 {
				return false, nil
			}
			model = true
		case "model name":
			if !strings.Contains(val, "AMD") {
				return false, nil
			}
			amd = true
		}
	}
	if err := s.Err(); err != nil {
		return false, err
	}
	return family && model && amd, nil
}
