package health

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// StatusOK is the liveness payload returned by Health.
const StatusOK = "OK"

// Memory holds point-in-time memory usage of the running process, in bytes.
type Memory struct {
	RSS       uint64 `json:"rss"`
	HeapTotal uint64 `json:"heapTotal"`
	HeapUsed  uint64 `json:"heapUsed"`
	Sys       uint64 `json:"sys"`
}

// Snapshot is the body of the /metrics endpoint.
type Snapshot struct {
	Uptime float64 `json:"uptime"`
	Memory Memory  `json:"memory"`
	Status string  `json:"status"`
}

// Reporter answers liveness and resource usage queries. It holds no
// reference to item state.
type Reporter struct {
	started time.Time
	now     func() time.Time
	rss     func() (uint64, error)
}

// NewReporter returns a Reporter whose uptime counts from now.
func NewReporter() *Reporter {
	return &Reporter{started: time.Now(), now: time.Now, rss: processRSS}
}

// Health always reports the process as alive.
func (r *Reporter) Health() string { return StatusOK }

// Metrics returns uptime in seconds and current memory figures.
// RSS is 0 when the platform does not expose it.
func (r *Reporter) Metrics() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	rss, err := r.rss()
	if err != nil {
		rss = 0
	}
	return Snapshot{
		Uptime: r.now().Sub(r.started).Seconds(),
		Memory: Memory{
			RSS:       rss,
			HeapTotal: ms.HeapSys,
			HeapUsed:  ms.HeapAlloc,
			Sys:       ms.Sys,
		},
		Status: "ok",
	}
}

func processRSS() (uint64, error) {
	p, err := process.NewProcess(int32(os.Getpid())) // #nosec G115 pid fits in int32
	if err != nil {
		return 0, err
	}
	mi, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return mi.RSS, nil
}
