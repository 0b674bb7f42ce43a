package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"ainewsag/internal/models"
)

// Pipeline is the subset of pipeline operations the poller drives.
type Pipeline interface {
	Refresh(ctx context.Context) (*models.RefreshReport, error)
	Analyze(ctx context.Context, batchSize int) (*models.AnalyzeReport, error)
}

// Poller runs refresh-then-analyze cycles on a fixed interval. Each cycle
// fetches the configured feeds and then works through one analysis batch;
// the backlog drains across cycles.
type Poller struct {
	pipeline     Pipeline
	pollInterval time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	lastPolled   time.Time
	lastRefresh  *models.RefreshReport
	lastAnalyze  *models.AnalyzeReport
	isPolling    bool
}

func New(pipeline Pipeline, pollInterval time.Duration) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		pipeline:     pipeline,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (p *Poller) Start() {
	p.mu.Lock()
	if p.isPolling {
		p.mu.Unlock()
		return
	}
	p.isPolling = true
	p.mu.Unlock()

	log.Printf("Starting news poller with interval: %v", p.pollInterval)

	p.wg.Add(1)
	go p.pollLoop()
}

func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.isPolling {
		p.mu.Unlock()
		return
	}
	p.isPolling = false
	p.mu.Unlock()

	log.Println("Stopping news poller...")
	p.cancel()
	p.wg.Wait()
	log.Println("News poller stopped")
}

func (p *Poller) pollLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// Poll immediately on start
	p.runCycle()

	for {
		select {
		case <-ticker.C:
			p.runCycle()
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Poller) runCycle() {
	refresh, err := p.pipeline.Refresh(p.ctx)
	if err != nil {
		log.Printf("Background refresh failed: %v", err)
	}

	// Analyze with the pipeline's default batch size
	analyze, err := p.pipeline.Analyze(p.ctx, 0)
	if err != nil {
		log.Printf("Background analysis failed: %v", err)
	}

	p.mu.Lock()
	p.lastPolled = time.Now().UTC()
	if refresh != nil {
		p.lastRefresh = refresh
	}
	if analyze != nil {
		p.lastAnalyze = analyze
	}
	p.mu.Unlock()
}

// ForcePoll runs one cycle immediately, outside the ticker schedule.
func (p *Poller) ForcePoll() {
	log.Println("Force polling requested")
	p.runCycle()
}

func (p *Poller) IsPolling() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isPolling
}

// Status describes the poller for the status endpoint.
type Status struct {
	IsPolling   bool                  `json:"is_polling"`
	Interval    string                `json:"interval"`
	LastPolled  *time.Time            `json:"last_polled,omitempty"`
	LastRefresh *models.RefreshReport `json:"last_refresh,omitempty"`
	LastAnalyze *models.AnalyzeReport `json:"last_analyze,omitempty"`
}

func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := Status{
		IsPolling:   p.isPolling,
		Interval:    p.pollInterval.String(),
		LastRefresh: p.lastRefresh,
		LastAnalyze: p.lastAnalyze,
	}
	if !p.lastPolled.IsZero() {
		polled := p.lastPolled
		status.LastPolled = &polled
	}
	return status
}
