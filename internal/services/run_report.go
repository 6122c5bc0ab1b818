package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DiagnosticError   = "error"
	DiagnosticWarning = "warning"
)

// Diagnostic is one issue recorded during a run. Ref identifies the
// offending input (file name, OID, SEQ NO) when there is one.
type Diagnostic struct {
	Level   string    `json:"level"`
	Ref     string    `json:"ref,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// RunReport collects the diagnostics of a single interface run. Create one
// per invocation and hand it to the notifier when the run ends.
type RunReport struct {
	InterfaceType string
	RunID         string
	StartedAt     time.Time

	mu          sync.Mutex
	diagnostics []Diagnostic
	processed   int
	failed      int
}

func NewRunReport(interfaceType string) *RunReport {
	return &RunReport{
		InterfaceType: interfaceType,
		RunID:         uuid.NewString(),
		StartedAt:     time.Now(),
	}
}

func (r *RunReport) add(level, ref, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, Diagnostic{Level: level, Ref: ref, Message: msg, At: time.Now()})
}

func (r *RunReport) Errorf(ref, format string, args ...interface{}) {
	r.add(DiagnosticError, ref, fmt.Sprintf(format, args...))
}

func (r *RunReport) Warnf(ref, format string, args ...interface{}) {
	r.add(DiagnosticWarning, ref, fmt.Sprintf(format, args...))
}

// AddCounts accumulates processed and failed record counts.
func (r *RunReport) AddCounts(processed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed += processed
	r.failed += failed
}

func (r *RunReport) Counts() (processed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed, r.failed
}

func (r *RunReport) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.diagnostics {
		if d.Level == DiagnosticError {
			return true
		}
	}
	return false
}

// Errors returns a copy of the error-level diagnostics.
func (r *RunReport) Errors() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Diagnostic
	for _, d := range r.diagnostics {
		if d.Level == DiagnosticError {
			out = append(out, d)
		}
	}
	return out
}

func (r *RunReport) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Summary renders the diagnostics one per line, prefixed by their ref.
func (r *RunReport) Summary() string {
	var sb strings.Builder
	for _, d := range r.Diagnostics() {
		if d.Ref != "" {
			sb.WriteString(d.Ref)
			sb.WriteString(": ")
		}
		sb.WriteString(d.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}
