package health

// Status classifies the outcome of a single check or of a whole report.
type Status string

const (
	StatusUp      Status = "UP"
	StatusDown    Status = "DOWN"
	StatusUnknown Status = "UNKNOWN"
)

// Category selects which probe variant a report is built for.
type Category string

const (
	// CategoryLiveness runs no dependency checks; it only confirms the
	// process answers at all.
	CategoryLiveness Category = "liveness"
	// CategoryReadiness runs every registered check and reports each as
	// name+status only.
	CategoryReadiness Category = "readiness"
	// CategoryFull runs every registered check and reports detail and
	// latency per check.
	CategoryFull Category = "full"
)

// Result holds the outcome of a single check. It is created fresh on
// every probe and never mutated afterwards.
type Result struct {
	Name      string  `json:"name"`
	Status    Status  `json:"status"`
	Detail    string  `json:"detail,omitempty"`
	LatencyMS float64 `json:"latency_ms,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Report is the reduced outcome of one aggregation pass. Checks keeps
// registration order regardless of which check finished first.
type Report struct {
	Status Status   `json:"status"`
	Checks []Result `json:"checks,omitempty"`
}

// Terse strips everything but name and status from every result. The
// readiness probe answers with this shape.
func (r Report) Terse() Report {
	out := Report{Status: r.Status}
	if len(r.Checks) > 0 {
		out.Checks = make([]Result, len(r.Checks))
		for i, c := range r.Checks {
			out.Checks[i] = Result{Name: c.Name, Status: c.Status}
		}
	}
	return out
}
