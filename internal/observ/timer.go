// Package observ aggregates where the time of a check goes, per pipeline step.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"experimental/internal/pipeline"
)

// Phase is the accumulated duration of one kind of step.
type Phase struct {
	Name  string
	Count int
	Dur   time.Duration
}

// Timer sums step durations over many pipeline runs. It is safe for
// concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	index  map[string]int
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer {
	return &Timer{phases: make([]Phase, 0, 8), index: make(map[string]int, 8)}
}

// Add records d under name. Phases keep the order they were first seen in.
func (t *Timer) Add(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[name]
	if !ok {
		i = len(t.phases)
		t.index[name] = i
		t.phases = append(t.phases, Phase{Name: name})
	}
	t.phases[i].Count++
	t.phases[i].Dur += d
}

// Observe records every step of a run's history.
func (t *Timer) Observe(history []pipeline.Step) {
	for _, s := range history {
		t.Add(StepName(s), s.Elapsed)
	}
}

// StepName names the phase a step is counted under: rewrites are split by
// feature and phase, other steps by state.
func StepName(s pipeline.Step) string {
	if s.State == pipeline.Rewritten {
		return s.Feature + "/" + s.Phase
	}
	return s.State.String()
}

// Summary returns a human-readable string summarizing all tracked phases.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-32s %9.2f ms  x%d\n", p.Name, p.DurationMS, p.Count)
	}
	fmt.Fprintf(&sb, "  %-32s %9.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport представляет сжатую информацию о фазе таймера для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	DurationMS float64 `json:"duration_ms"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report формирует срез фаз и общую длительность в миллисекундах.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			Count:      phase.Count,
			DurationMS: durationToMillis(phase.Dur),
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
