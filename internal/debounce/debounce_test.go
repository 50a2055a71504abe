package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

// manualTimers replaces afterFunc so scheduled callbacks only run when the
// test fires them.
func manualTimers(t *testing.T) *[]func() {
	t.Helper()
	orig := afterFunc
	t.Cleanup(func() { afterFunc = orig })

	var scheduled []func()
	afterFunc = func(_ time.Duration, f func()) *time.Timer {
		scheduled = append(scheduled, f)
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		return timer
	}
	return &scheduled
}

func TestDebouncerGenerations(t *testing.T) {
	tests := []struct {
		name  string
		steps func(d *Debouncer)
		// fire lists the scheduled callbacks to run, by index, in order.
		fire  []int
		want  int32
	}{
		{
			name:  "latest_trigger_wins",
			steps: func(d *Debouncer) { d.Trigger(); d.Trigger(); d.Trigger() },
			fire:  []int{0, 1, 2},
			want:  1,
		},
		{
			name:  "stale_fires_after_latest",
			steps: func(d *Debouncer) { d.Trigger(); d.Trigger() },
			fire:  []int{1, 0},
			want:  1,
		},
		{
			name:  "stop_drops_pending",
			steps: func(d *Debouncer) { d.Trigger(); d.Stop() },
			fire:  []int{0},
			want:  0,
		},
		{
			name:  "trigger_after_stop",
			steps: func(d *Debouncer) { d.Trigger(); d.Stop(); d.Trigger() },
			fire:  []int{0, 1},
			want:  1,
		},
		{
			name:  "stop_without_trigger",
			steps: func(d *Debouncer) { d.Stop(); d.Stop() },
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduled := manualTimers(t)
			var called atomic.Int32
			d := New(time.Second, func() { called.Add(1) })

			tt.steps(d)
			for _, i := range tt.fire {
				(*scheduled)[i]()
			}
			if got := called.Load(); got != tt.want {
				t.Fatalf("got %d calls, want %d", got, tt.want)
			}
		})
	}
}

func TestDebouncerCoalescesWithRealTimers(t *testing.T) {
	var called atomic.Int32
	fired := make(chan struct{}, 1)
	d := New(15*time.Millisecond, func() {
		called.Add(1)
		fired <- struct{}{}
	})
	for range 5 {
		d.Trigger()
	}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}
	time.Sleep(30 * time.Millisecond)
	if got := called.Load(); got != 1 {
		t.Fatalf("got %d calls, want 1", got)
	}
}

func TestEnsure(t *testing.T) {
	scheduled := manualTimers(t)
	var d *Debouncer
	var called atomic.Int32

	first := Ensure(&d, time.Second, func() { called.Add(1) })
	if first == nil || first != d {
		t.Fatal("Ensure did not store the new debouncer")
	}
	second := Ensure(&d, time.Second, func() { called.Add(100) })
	if second != first {
		t.Fatal("Ensure replaced an existing debouncer")
	}

	second.Trigger()
	(*scheduled)[0]()
	if got := called.Load(); got != 1 {
		t.Fatalf("got %d, want the first handler to run once", got)
	}
}
