package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"ainewsag/internal/models"
)

type fakePipeline struct {
	mu       sync.Mutex
	refreshN int
	analyzeN int
}

func (f *fakePipeline) Refresh(ctx context.Context) (*models.RefreshReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshN++
	return &models.RefreshReport{FeedsAttempted: 1, CompletedAt: time.Now().UTC()}, nil
}

func (f *fakePipeline) Analyze(ctx context.Context, batchSize int) (*models.AnalyzeReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeN++
	return &models.AnalyzeReport{CompletedAt: time.Now().UTC()}, nil
}

func (f *fakePipeline) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshN, f.analyzeN
}

func TestPollerRunsImmediatelyOnStart(t *testing.T) {
	fake := &fakePipeline{}
	p := New(fake, time.Hour)

	p.Start()
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for {
		if r, a := fake.counts(); r >= 1 && a >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Poller did not run an initial cycle")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPollerTicks(t *testing.T) {
	fake := &fakePipeline{}
	p := New(fake, 50*time.Millisecond)

	p.Start()
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for {
		if r, _ := fake.counts(); r >= 3 {
			break
		}
		select {
		case <-deadline:
			r, _ := fake.counts()
			t.Fatalf("Expected at least 3 refresh cycles, got %d", r)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	p := New(&fakePipeline{}, time.Hour)

	p.Start()
	if !p.IsPolling() {
		t.Error("Expected IsPolling after Start")
	}

	p.Stop()
	p.Stop()
	if p.IsPolling() {
		t.Error("Expected not polling after Stop")
	}
}

func TestPollerStartIsIdempotent(t *testing.T) {
	fake := &fakePipeline{}
	p := New(fake, time.Hour)

	p.Start()
	p.Start()
	defer p.Stop()

	// Give the single loop a moment to run its initial cycle
	time.Sleep(100 * time.Millisecond)
	if r, _ := fake.counts(); r > 1 {
		t.Errorf("Expected a single poll loop, got %d initial refreshes", r)
	}
}

func TestPollerStatus(t *testing.T) {
	fake := &fakePipeline{}
	p := New(fake, time.Hour)

	status := p.Status()
	if status.IsPolling {
		t.Error("Expected not polling before Start")
	}
	if status.LastPolled != nil {
		t.Error("Expected no last polled time before any cycle")
	}

	p.ForcePoll()

	status = p.Status()
	if status.LastPolled == nil {
		t.Fatal("Expected last polled time after ForcePoll")
	}
	if status.LastRefresh == nil || status.LastAnalyze == nil {
		t.Error("Expected last reports after ForcePoll")
	}
	if status.Interval != time.Hour.String() {
		t.Errorf("Expected interval %q, got %q", time.Hour.String(), status.Interval)
	}
}
