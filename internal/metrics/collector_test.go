package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Count() (int, error) { return f.n, f.err }

type fakeSessions int

func (f fakeSessions) Active() int { return int(f) }

func TestCollect(t *testing.T) {
	collect(fakeCounter{n: 7}, fakeSessions(2))

	if got := testutil.ToFloat64(EntriesTotal); got != 7 {
		t.Errorf("EntriesTotal = %v, want 7", got)
	}
	if got := testutil.ToFloat64(ActiveSessionsTotal); got != 2 {
		t.Errorf("ActiveSessionsTotal = %v, want 2", got)
	}
}

func TestCollect_CountErrorKeepsPreviousValue(t *testing.T) {
	collect(fakeCounter{n: 3}, nil)
	collect(fakeCounter{err: errors.New("boom")}, nil)

	if got := testutil.ToFloat64(EntriesTotal); got != 3 {
		t.Errorf("EntriesTotal = %v, want 3", got)
	}
}

func TestStartCollector_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartCollector(ctx, fakeCounter{n: 1}, nil, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
}
