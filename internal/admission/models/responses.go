package models

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	RetryAfter int    `json:"retryAfter"`
}

// CounterStatusResponse is returned by the admin inspection endpoint.
type CounterStatusResponse struct {
	Operation   Operation `json:"operation"`
	Identifier  string    `json:"identifier"`
	Count       int       `json:"count"`
	Limit       int       `json:"limit"`
	Remaining   int       `json:"remaining"`
	WindowSecs  int       `json:"windowSeconds"`
	ResetAtUnix int64     `json:"resetAt,omitempty"`
}

type CounterResetResponse struct {
	Operation  Operation `json:"operation"`
	Identifier string    `json:"identifier"`
	Reset      bool      `json:"reset"`
}

// PolicyResponse describes one active policy on the admin API.
type PolicyResponse struct {
	Operation     Operation `json:"operation"`
	WindowSeconds int       `json:"windowSeconds"`
	MaxRequests   int       `json:"maxRequests"`
	FailMode      FailMode  `json:"failMode"`
}
