package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Aggregator runs the registered checks for a probe category and
// reduces their results into one report. It holds no per-request state;
// every Aggregate call is an independent pass over the registry.
type Aggregator struct {
	Logger       *zap.Logger
	Registry     *Registry
	CheckTimeout time.Duration // bound on each individual check
	Timeout      time.Duration // bound on the whole pass
	Concurrency  int
}

func NewAggregator(logger *zap.Logger, reg *Registry, checkTimeout, timeout time.Duration, concurrency int) *Aggregator {
	if checkTimeout <= 0 {
		checkTimeout = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		Logger:       logger,
		Registry:     reg,
		CheckTimeout: checkTimeout,
		Timeout:      timeout,
		Concurrency:  concurrency,
	}
}

// Aggregate dispatches every applicable check concurrently and collects
// the results back into registration order. The pass as a whole is
// bounded by Timeout: checks that have not finished by then are
// reported DOWN with error "timeout" instead of delaying the response.
// Overall status is DOWN exactly when at least one check is DOWN;
// UNKNOWN results are surfaced but never flip it.
func (a *Aggregator) Aggregate(ctx context.Context, cat Category) Report {
	if cat == CategoryLiveness {
		return Report{Status: StatusUp}
	}

	checks := a.Registry.Checks()
	if len(checks) == 0 {
		return Report{Status: StatusUp}
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		finished = make([]bool, len(checks))
		results  = make([]Result, len(checks))
	)

	sem := make(chan struct{}, a.Concurrency)
	var wg sync.WaitGroup
	for i, c := range checks {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cctx, ccancel := context.WithTimeout(ctx, a.CheckTimeout)
			defer ccancel()

			res := c.Run(cctx)

			mu.Lock()
			results[i] = res
			finished[i] = true
			mu.Unlock()
		}()
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
	case <-ctx.Done():
		// Stragglers keep running detached; their slots are filled in
		// below and their eventual results are discarded.
	}

	mu.Lock()
	for i := range results {
		if !finished[i] {
			results[i] = Result{Name: checks[i].Name(), Status: StatusDown, Error: "timeout"}
		}
	}
	out := make([]Result, len(results))
	copy(out, results)
	mu.Unlock()

	overall := StatusUp
	for _, r := range out {
		if r.Status == StatusDown {
			overall = StatusDown
			a.Logger.Warn("check_down",
				zap.String("category", string(cat)),
				zap.String("check", r.Name),
				zap.String("error", r.Error),
			)
		}
	}

	rep := Report{Status: overall, Checks: out}
	if cat == CategoryReadiness {
		return rep.Terse()
	}
	return rep
}
