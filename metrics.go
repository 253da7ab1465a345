package fhirextractor

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks extraction performance using lock-free atomic
// operations. All methods are safe for concurrent use.
type Metrics struct {
	// Run counts
	runsTotal    atomic.Uint64
	runsComplete atomic.Uint64
	runsTimedOut atomic.Uint64

	// Task counts
	tasksTotal    atomic.Uint64
	tasksTimedOut atomic.Uint64
	tasksFailed   atomic.Uint64

	// Provider calls
	providerCalls  atomic.Uint64
	providerErrors atomic.Uint64

	// Candidate outcomes
	candidatesValid   atomic.Uint64
	candidatesInvalid atomic.Uint64

	// Grounding outcomes
	groundExact  atomic.Uint64
	groundFuzzy  atomic.Uint64
	groundMissed atomic.Uint64

	// Task timing (stored as nanoseconds)
	taskTimeTotal atomic.Uint64
	taskTimeMin   atomic.Uint64
	taskTimeMax   atomic.Uint64

	// Per-model timing
	modelTiming sync.Map // map[string]*modelMetrics
}

// modelMetrics tracks metrics for a single resource type.
type modelMetrics struct {
	tasks       atomic.Uint64
	totalTime   atomic.Uint64 // nanoseconds
	extractions atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.taskTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordRun records a completed run.
func (m *Metrics) RecordRun(status RunStatus) {
	m.runsTotal.Add(1)
	switch status {
	case StatusComplete:
		m.runsComplete.Add(1)
	case StatusTimedOut:
		m.runsTimedOut.Add(1)
	}
}

// RecordTask records one completed (target, window) task.
func (m *Metrics) RecordTask(model string, duration time.Duration, extracted int, timedOut bool) {
	m.tasksTotal.Add(1)
	if timedOut {
		m.tasksTimedOut.Add(1)
	}

	ns := uint64(duration.Nanoseconds())
	m.taskTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.taskTimeMin.Load()
		if ns >= old {
			break
		}
		if m.taskTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.taskTimeMax.Load()
		if ns <= old {
			break
		}
		if m.taskTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}

	mm := m.forModel(model)
	mm.tasks.Add(1)
	mm.totalTime.Add(ns)
	mm.extractions.Add(uint64(extracted))
}

// RecordTaskFailure records a task that failed outright.
func (m *Metrics) RecordTaskFailure() {
	m.tasksFailed.Add(1)
}

// RecordProviderCall records one generation call and its outcome.
func (m *Metrics) RecordProviderCall(err error) {
	m.providerCalls.Add(1)
	if err != nil {
		m.providerErrors.Add(1)
	}
}

// RecordCandidate records a candidate's validation outcome.
func (m *Metrics) RecordCandidate(valid bool) {
	if valid {
		m.candidatesValid.Add(1)
	} else {
		m.candidatesInvalid.Add(1)
	}
}

// GroundingOutcome classifies how a snippet was located.
type GroundingOutcome int

// Grounding outcomes.
const (
	GroundedExact GroundingOutcome = iota
	GroundedFuzzy
	GroundingMiss
)

// RecordGrounding records one grounding attempt.
func (m *Metrics) RecordGrounding(outcome GroundingOutcome) {
	switch outcome {
	case GroundedExact:
		m.groundExact.Add(1)
	case GroundedFuzzy:
		m.groundFuzzy.Add(1)
	case GroundingMiss:
		m.groundMissed.Add(1)
	}
}

func (m *Metrics) forModel(model string) *modelMetrics {
	if v, ok := m.modelTiming.Load(model); ok {
		return v.(*modelMetrics)
	}
	v, _ := m.modelTiming.LoadOrStore(model, &modelMetrics{})
	return v.(*modelMetrics)
}

// --- Snapshot ---

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	RunsTotal    uint64
	RunsComplete uint64
	RunsTimedOut uint64

	TasksTotal    uint64
	TasksTimedOut uint64
	TasksFailed   uint64

	ProviderCalls  uint64
	ProviderErrors uint64

	CandidatesValid   uint64
	CandidatesInvalid uint64

	GroundExact  uint64
	GroundFuzzy  uint64
	GroundMissed uint64

	TaskTimeAvg time.Duration
	TaskTimeMin time.Duration
	TaskTimeMax time.Duration

	PerModel map[string]ModelSnapshot
}

// ModelSnapshot is a point-in-time copy of one resource type's counters.
type ModelSnapshot struct {
	Tasks       uint64
	Extractions uint64
	TimeTotal   time.Duration
}

// Snapshot returns a consistent-enough copy of the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		RunsTotal:    m.runsTotal.Load(),
		RunsComplete: m.runsComplete.Load(),
		RunsTimedOut: m.runsTimedOut.Load(),

		TasksTotal:    m.tasksTotal.Load(),
		TasksTimedOut: m.tasksTimedOut.Load(),
		TasksFailed:   m.tasksFailed.Load(),

		ProviderCalls:  m.providerCalls.Load(),
		ProviderErrors: m.providerErrors.Load(),

		CandidatesValid:   m.candidatesValid.Load(),
		CandidatesInvalid: m.candidatesInvalid.Load(),

		GroundExact:  m.groundExact.Load(),
		GroundFuzzy:  m.groundFuzzy.Load(),
		GroundMissed: m.groundMissed.Load(),

		PerModel: make(map[string]ModelSnapshot),
	}

	if tasks := s.TasksTotal; tasks > 0 {
		s.TaskTimeAvg = time.Duration(m.taskTimeTotal.Load() / tasks)
	}
	if min := m.taskTimeMin.Load(); min != ^uint64(0) {
		s.TaskTimeMin = time.Duration(min)
	}
	s.TaskTimeMax = time.Duration(m.taskTimeMax.Load())

	m.modelTiming.Range(func(key, value any) bool {
		mm := value.(*modelMetrics)
		s.PerModel[key.(string)] = ModelSnapshot{
			Tasks:       mm.tasks.Load(),
			Extractions: mm.extractions.Load(),
			TimeTotal:   time.Duration(mm.totalTime.Load()),
		}
		return true
	})

	return s
}

// GroundingHitRate returns the fraction of grounding attempts that
// located an interval, or 0 when nothing was attempted.
func (m *Metrics) GroundingHitRate() float64 {
	hits := m.groundExact.Load() + m.groundFuzzy.Load()
	total := hits + m.groundMissed.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
