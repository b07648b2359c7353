package main

import "time"

// TickFunc is called once per tick with the match time elapsed since the
// driver started, the time since the previous tick and the wall clock.
type TickFunc func(elapsed, dt time.Duration, now time.Time) error

// TickDriver fans a match's clock out to its subscribers in subscription
// order. It has no goroutine of its own; the match loop calls Fire.
type TickDriver struct {
	start  time.Time
	last   time.Time
	nextID int
	subs   *orderedIndex[int, TickFunc]
}

// NewTickDriver creates a driver whose clock starts at start
func NewTickDriver(start time.Time) *TickDriver {
	return &TickDriver{
		start: start,
		last:  start,
		subs:  newOrderedIndex[int, TickFunc](),
	}
}

// Subscribe adds fn and returns a handle for Unsubscribe
func (d *TickDriver) Subscribe(fn TickFunc) int {
	d.nextID++
	d.subs.Put(d.nextID, fn)
	return d.nextID
}

// Unsubscribe removes a subscriber and reports whether it was present
func (d *TickDriver) Unsubscribe(id int) bool {
	return d.subs.Delete(id)
}

// Subscribers returns the number of subscribers
func (d *TickDriver) Subscribers() int {
	return d.subs.Len()
}

// Fire runs one tick at now. It stops at the first subscriber error.
func (d *TickDriver) Fire(now time.Time) error {
	elapsed := now.Sub(d.start)
	dt := now.Sub(d.last)
	d.last = now

	var err error
	d.subs.Each(func(_ int, fn TickFunc) bool {
		err = fn(elapsed, dt, now)
		return err == nil
	})
	return err
}
