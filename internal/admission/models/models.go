package models

import (
	"fmt"
	"time"

	dErrors "wealthgate/pkg/domain-errors"
)

// Operation names a class of requests that share one rate-limit policy.
type Operation string

const (
	OperationLogin  Operation = "login"
	OperationSearch Operation = "search"
	OperationAPI    Operation = "api"
	OperationExport Operation = "export"
)

// Operations lists every known operation in a stable order.
func Operations() []Operation {
	return []Operation{OperationLogin, OperationSearch, OperationAPI, OperationExport}
}

func (o Operation) IsValid() bool {
	switch o {
	case OperationLogin, OperationSearch, OperationAPI, OperationExport:
		return true
	}
	return false
}

func (o Operation) String() string {
	return string(o)
}

// ParseOperation validates a caller-supplied operation name.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.IsValid() {
		return "", UnknownOperationError(s)
	}
	return op, nil
}

// UnknownOperationError reports a check against a policy that does not exist.
func UnknownOperationError(op string) error {
	return dErrors.New(dErrors.CodeUnknownOperation, fmt.Sprintf("unknown rate limit operation %q", op))
}

// FailMode decides the outcome when the counter store cannot be reached.
type FailMode string

const (
	FailOpen   FailMode = "open"
	FailClosed FailMode = "closed"
)

// Policy is the immutable rate-limit rule for one operation.
type Policy struct {
	Operation   Operation
	Window      time.Duration
	MaxRequests int
	KeyPrefix   string
	FailMode    FailMode
}

func (p Policy) WindowSeconds() int {
	return int(p.Window / time.Second)
}

// WindowCount is what a counter store reports after recording or reading a
// key: requests inside the window and when the oldest of them expires.
type WindowCount struct {
	Count   int
	ResetAt time.Time
}

// Decision is the per-request admission verdict.
type Decision struct {
	Operation  Operation `json:"operation"`
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"resetAt"`
	RetryAfter int       `json:"retryAfter,omitempty"`
	Degraded   bool      `json:"degraded,omitempty"`
}

// ResetAtEpochMillis is the instant the oldest counted request leaves the window.
func (d *Decision) ResetAtEpochMillis() int64 {
	return d.ResetAt.UnixMilli()
}

// NewDecision applies a policy to a window count observed at now.
func NewDecision(p Policy, wc WindowCount, now time.Time) *Decision {
	allowed := wc.Count <= p.MaxRequests
	d := &Decision{
		Operation: p.Operation,
		Allowed:   allowed,
		Limit:     p.MaxRequests,
		Remaining: max(0, p.MaxRequests-wc.Count),
		ResetAt:   wc.ResetAt,
	}
	if !allowed {
		d.RetryAfter = RetryAfterSeconds(wc.ResetAt, now)
	}
	return d
}

// RetryAfterSeconds returns ceil((resetAt - now) / 1s), never negative.
func RetryAfterSeconds(resetAt, now time.Time) int {
	ms := resetAt.UnixMilli() - now.UnixMilli()
	if ms <= 0 {
		return 0
	}
	return int((ms + 999) / 1000)
}

// CounterStatus is a read-only view of one counter for operators.
type CounterStatus struct {
	Policy     Policy
	Identifier string
	Count      int
	ResetAt    time.Time
}
