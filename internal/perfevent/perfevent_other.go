// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package perfevent

// DefaultEvents returns nil: there are no perf events on this system.
func DefaultEvents() []Event { return nil }

// AMDEvents returns nil: there are no perf events on this system.
func AMDEvents() []Event { return nil }

func supported() error { return ErrUnsupported }

func open(typ uint32, config uint64) (int, error) { return -1, ErrUnsupported }

func reset(fd int) error { return ErrUnsupported }

func enable(fd int) error { return ErrUnsupported }

func disable(fd int) error { return ErrUnsupported }

func closeFD(fd int) error { return nil }

func read(fd int) (value, enabled, running uint64, err error) { return 0, 0, 0, ErrUnsupported }
