package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Check is implemented by anything that can probe one dependency.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// maxProbeBody bounds how much of a dependency's answer is read.
const maxProbeBody = 64 << 10

// HTTPCheck probes a dependency over HTTP. UP requires a 2xx answer
// whose body is a JSON report with "status": "UP"; any other status, a
// refused connection, a DNS failure, a timeout, a malformed body or a
// self-reported non-UP status counts as DOWN with the cause in the
// result's Error field.
type HTTPCheck struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPCheck(name, url string, timeout time.Duration) *HTTPCheck {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPCheck{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPCheck) Name() string { return c.name }

// URL returns the resolved probe URL.
func (c *HTTPCheck) URL() string { return c.url }

func (c *HTTPCheck) Run(ctx context.Context) Result {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Result{Name: c.name, Status: StatusDown, Error: err.Error()}
	}

	resp, err := c.client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return Result{Name: c.name, Status: StatusDown, Error: err.Error(), LatencyMS: latency}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			Name:      c.name,
			Status:    StatusDown,
			Error:     fmt.Sprintf("unexpected status %s", resp.Status),
			LatencyMS: latency,
		}
	}

	// A 2xx alone is not proof of health: the dependency must report
	// itself UP, otherwise a misrouted page or a degraded backend
	// answering 200 would pass.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return Result{Name: c.name, Status: StatusDown, Error: "reading response body: " + err.Error(), LatencyMS: latency}
	}
	var report struct {
		Status Status `json:"status"`
	}
	if err := json.Unmarshal(body, &report); err != nil {
		return Result{Name: c.name, Status: StatusDown, Error: "malformed response body: " + err.Error(), LatencyMS: latency}
	}
	if report.Status != StatusUp {
		return Result{
			Name:      c.name,
			Status:    StatusDown,
			Error:     fmt.Sprintf("dependency reported status %q", string(report.Status)),
			LatencyMS: latency,
		}
	}

	return Result{
		Name:      c.name,
		Status:    StatusUp,
		Detail:    resp.Status,
		LatencyMS: latency,
	}
}

// ErrSkipped can be returned by a CheckFunc that deliberately did not
// run. It maps to UNKNOWN, which is surfaced in the report but never
// flips the overall status.
var ErrSkipped = errors.New("check skipped")

// CheckFunc is a custom check registered through configuration. A nil
// return means UP, ErrSkipped means UNKNOWN, anything else means DOWN.
type CheckFunc func(ctx context.Context) error

// FuncCheck adapts a CheckFunc to the Check interface. A panic inside
// the function is recovered and reported as DOWN, so a broken custom
// check cannot take the aggregator down with it.
type FuncCheck struct {
	name string
	fn   CheckFunc
}

func NewFuncCheck(name string, fn CheckFunc) *FuncCheck {
	return &FuncCheck{name: name, fn: fn}
}

func (c *FuncCheck) Name() string { return c.name }

func (c *FuncCheck) Run(ctx context.Context) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Name:      c.name,
				Status:    StatusDown,
				Error:     fmt.Sprintf("check panicked: %v", r),
				LatencyMS: time.Since(start).Seconds() * 1000,
			}
		}
	}()

	err := c.fn(ctx)
	latency := time.Since(start).Seconds() * 1000
	switch {
	case err == nil:
		return Result{Name: c.name, Status: StatusUp, LatencyMS: latency}
	case errors.Is(err, ErrSkipped):
		return Result{Name: c.name, Status: StatusUnknown, Detail: err.Error(), LatencyMS: latency}
	default:
		return Result{Name: c.name, Status: StatusDown, Error: err.Error(), LatencyMS: latency}
	}
}
