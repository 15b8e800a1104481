package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/ghreport/internal/log"
)

// Profiler writes the CPU profile, heap profile and execution trace
// requested on the command line. Empty paths disable a profile.
type Profiler struct {
	cpuProfile string
	memProfile string
	tracePath  string

	// stops run in reverse order of starting.
	stops []func() error
}

// NewProfiler creates a profiler for the given output paths.
func NewProfiler(cpuProfile, memProfile, tracePath string) *Profiler {
	return &Profiler{
		cpuProfile: cpuProfile,
		memProfile: memProfile,
		tracePath:  tracePath,
	}
}

// Start begins CPU profiling and tracing. If either cannot start, whatever
// was already started is stopped again.
func (p *Profiler) Start() error {
	if p.cpuProfile != "" {
		if err := p.begin(p.cpuProfile, "CPU profile", pprof.StartCPUProfile, pprof.StopCPUProfile); err != nil {
			return err
		}
	}
	if p.tracePath != "" {
		if err := p.begin(p.tracePath, "trace", trace.Start, trace.Stop); err != nil {
			p.Stop()
			return err
		}
	}
	return nil
}

func (p *Profiler) begin(path, what string, start func(io.Writer) error, stop func()) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", what, err)
	}
	if err := start(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not start %s: %w", what, err)
	}
	p.stops = append(p.stops, func() error {
		stop()
		if err := f.Close(); err != nil {
			return fmt.Errorf("could not close %s: %w", what, err)
		}
		return nil
	})
	return nil
}

// Stop ends profiling and tracing and writes the heap profile. Failures
// are logged rather than returned so they never mask the run's result.
func (p *Profiler) Stop() {
	var errs []error
	for i := len(p.stops) - 1; i >= 0; i-- {
		errs = append(errs, p.stops[i]())
	}
	p.stops = nil

	if p.memProfile != "" {
		errs = append(errs, writeHeapProfile(p.memProfile))
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn("profiling", "error", err)
	}
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return f.Close()
}
