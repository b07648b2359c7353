package main

import (
	"errors"
	"testing"
	"time"
)

func TestTickDriverFiresInOrder(t *testing.T) {
	d := NewTickDriver(epoch)
	var order []string
	var gotElapsed, gotDt time.Duration

	d.Subscribe(func(elapsed, dt time.Duration, now time.Time) error {
		order = append(order, "first")
		gotElapsed, gotDt = elapsed, dt
		return nil
	})
	d.Subscribe(func(time.Duration, time.Duration, time.Time) error {
		order = append(order, "second")
		return nil
	})

	d.Fire(epoch.Add(time.Second))
	if err := d.Fire(epoch.Add(3 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if len(order) != 4 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v", order)
	}
	if gotElapsed != 3*time.Second || gotDt != 2*time.Second {
		t.Errorf("elapsed=%v dt=%v, want 3s and 2s", gotElapsed, gotDt)
	}
}

func TestTickDriverStopsAtError(t *testing.T) {
	d := NewTickDriver(epoch)
	boom := errors.New("boom")
	called := false
	d.Subscribe(func(time.Duration, time.Duration, time.Time) error { return boom })
	d.Subscribe(func(time.Duration, time.Duration, time.Time) error {
		called = true
		return nil
	})

	if err := d.Fire(epoch.Add(time.Second)); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if called {
		t.Error("subscriber after the failing one should not run")
	}
}

func TestTickDriverUnsubscribe(t *testing.T) {
	d := NewTickDriver(epoch)
	calls := 0
	id := d.Subscribe(func(time.Duration, time.Duration, time.Time) error {
		calls++
		return nil
	})
	if !d.Unsubscribe(id) || d.Unsubscribe(id) {
		t.Error("unsubscribe should succeed exactly once")
	}
	d.Fire(epoch.Add(time.Second))
	if calls != 0 || d.Subscribers() != 0 {
		t.Errorf("calls=%d subscribers=%d after unsubscribe", calls, d.Subscribers())
	}
}
