package client

// Item mirrors the server's item representation.
type Item struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// ItemInput is the body of create and update calls. Nil fields are not sent,
// so an update only changes what is set here.
type ItemInput struct {
	Name      *string `json:"name,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Memory is the memory section of the daemon's /metrics document (bytes).
type Memory struct {
	RSS       uint64 `json:"rss"`
	HeapTotal uint64 `json:"heapTotal"`
	HeapUsed  uint64 `json:"heapUsed"`
	Sys       uint64 `json:"sys"`
}

// MetricsSnapshot is the response of GET /metrics.
type MetricsSnapshot struct {
	Uptime float64 `json:"uptime"`
	Memory Memory  `json:"memory"`
	Status string  `json:"status"`
}

// ErrorResponse is the body of a 400 answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// String returns a pointer to s, for building an ItemInput.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building an ItemInput.
func Bool(b bool) *bool { return &b }
