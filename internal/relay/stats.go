package relay

import (
	"sync/atomic"
	"time"
)

type ServiceStats struct {
	totalRelayed    atomic.Int64
	totalFailed     atomic.Int64
	totalDurationNs atomic.Int64
	startedAt       time.Time
}

func NewServiceStats() *ServiceStats {
	return &ServiceStats{startedAt: time.Now()}
}

func (m *ServiceStats) RecordSuccess(d time.Duration) {
	m.totalRelayed.Add(1)
	m.totalDurationNs.Add(int64(d))
}

func (m *ServiceStats) RecordFailure() {
	m.totalFailed.Add(1)
}

type Snapshot struct {
	Relayed       int64
	Failed        int64
	RatePerSecond float64
	AvgDuration   time.Duration
	Uptime        time.Duration
}

func (m *ServiceStats) Snapshot() Snapshot {
	relayed := m.totalRelayed.Load()
	uptime := time.Since(m.startedAt)

	s := Snapshot{
		Relayed: relayed,
		Failed:  m.totalFailed.Load(),
		Uptime:  uptime,
	}
	if secs := uptime.Seconds(); secs > 0 {
		s.RatePerSecond = float64(relayed) / secs
	}
	if relayed > 0 {
		s.AvgDuration = time.Duration(m.totalDurationNs.Load() / relayed)
	}
	return s
}
