// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfevent

import (
	"errors"
	"fmt"
	"time"
)

// A Group is a set of counters enabled and disabled together.
//
// Counters follow the thread that opened them, so callers should
// hold runtime.LockOSThread from NewGroup until Close.
type Group struct {
	counters    []counter
	start, stop time.Time
}

type counter struct {
	name string
	fd   int
}

// NewGroup returns an empty group.
func NewGroup() (*Group, error) {
	if err := supported(); err != nil {
		return nil, err
	}
	return &Group{}, nil
}

// AddEvent opens a counter for the event, initially disabled.
func (g *Group) AddEvent(name string, typ uint32, config uint64) error {
	fd, err := open(typ, config)
	if err != nil {
		return fmt.Errorf("perfevent: opening %s: %w", name, err)
	}
	g.counters = append(g.counters, counter{name, fd})
	return nil
}

// Len returns the number of open counters.
func (g *Group) Len() int {
	return len(g.counters)
}

// Enable resets and then starts every counter.
func (g *Group) Enable() error {
	for _, c := range g.counters {
		if err := reset(c.fd); err != nil {
			return fmt.Errorf("perfevent: resetting %s: %w", c.name, err)
		}
	}
	for _, c := range g.counters {
		if err := enable(c.fd); err != nil {
			return fmt.Errorf("perfevent: enabling %s: %w", c.name, err)
		}
	}
	g.start = time.Now()
	return nil
}

// Disable stops every counter.
func (g *Group) Disable() error {
	var errs []error
	for _, c := range g.counters {
		if err := disable(c.fd); err != nil {
			errs = append(errs, fmt.Errorf("perfevent: disabling %s: %w", c.name, err))
		}
	}
	g.stop = time.Now()
	return errors.Join(errs...)
}

// Read returns the scaled counts and the wall-clock time between the
// last Enable and Disable.
func (g *Group) Read() (Reading, error) {
	r := make(Reading, len(g.counters)+1)
	for _, c := range g.counters {
		value, enabled, running, err := read(c.fd)
		if err != nil {
			return nil, fmt.Errorf("perfevent: reading %s: %w", c.name, err)
		}
		if v, ok := scale(value, enabled, running); ok {
			r[c.name] = v
		}
	}
	r[WallClock] = float64(g.stop.Sub(g.start)) / float64(time.Millisecond)
	return r, nil
}

// Close closes every counter, most recently added first.
func (g *Group) Close() error {
	var errs []error
	for i := len(g.counters) - 1; i >= 0; i-- {
		if err := closeFD(g.counters[i].fd); err != nil {
			errs = append(errs, err)
		}
	}
	g.counters = nil
	return errors.Join(errs...)
}
