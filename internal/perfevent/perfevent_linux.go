// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perfevent

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultEvents returns the generic hardware and cache events.
func DefaultEvents() []Event {
	l1d := func(op, result uint64) uint64 {
		return CacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, op, result)
	}
	return []Event{
		{"cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
		{"ins", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS},
		{"l1d-cache-misses", unix.PERF_TYPE_HW_CACHE, l1d(unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
		{"l1d-cache-accesses", unix.PERF_TYPE_HW_CACHE, l1d(unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)},
		{"l1d-cache-prefetch", unix.PERF_TYPE_HW_CACHE, l1d(unix.PERF_COUNT_HW_CACHE_OP_PREFETCH, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)},
		{"llc-cache-misses", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES},
		{"llc-cache-accesses", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_REFERENCES},
	}
}

// AMDEvents returns raw L2 and memory events of AMD family 1Ah model
// 44h (Zen 5). Codes are umask<<8 | event.
func AMDEvents() []Event {
	return []Event{
		{"amd_all_l2_cache_access", unix.PERF_TYPE_RAW, 0xf760},
		{"amd_l2_cache_access_no_prefetch", unix.PERF_TYPE_RAW, 0xf160},
		{"amd_memory_ops", unix.PERF_TYPE_RAW, 0x0729},
		{"amd_all_data_l2_cache_access", unix.PERF_TYPE_RAW, 0xe060},
	}
}

func supported() error { return nil }

func open(typ uint32, config uint64) (int, error) {
	attr := unix.PerfEventAttr{
		Type:        typ,
		Size:        uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Config:      config,
		Bits:        unix.PerfBitDisabled | unix.PerfBitExcludeHv,
		Read_format: unix.PERF_FORMAT_TOTAL_TIME_ENABLED | unix.PERF_FORMAT_TOTAL_TIME_RUNNING,
	}
	// This thread, any CPU, no group leader.
	return unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
}

func reset(fd int) error   { return unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0) }
func enable(fd int) error  { return unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0) }
func disable(fd int) error { return unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0) }
func closeFD(fd int) error { return unix.Close(fd) }

// read reads a counter in the TOTAL_TIME_ENABLED|TOTAL_TIME_RUNNING
// read format: value, time_enabled, time_running.
func read(fd int) (value, enabled, running uint64, err error) {
	var buf [24]byte
	n, err := unix.Read(fd, buf[:])
	if err != nil {
		return 0, 0, 0, err
	}
	if n != len(buf) {
		return 0, 0, 0, fmt.Errorf("short read: %d of %d bytes", n, len(buf))
	}
	return binary.NativeEndian.Uint64(buf[0:]),
		binary.NativeEndian.Uint64(buf[8:]),
		binary.NativeEndian.Uint64(buf[16:]), nil
}
