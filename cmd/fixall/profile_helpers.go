package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	rtrace "runtime/trace"

	"github.com/spf13/cobra"
)

// profiler owns the files of the active CPU profile and runtime trace.
type profiler struct {
	cpu   *os.File
	trace *os.File
	mem   string
}

func (p *profiler) startCPU(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return err
	}
	p.cpu = f
	return nil
}

func (p *profiler) startTrace(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rtrace.Start(f); err != nil {
		_ = f.Close()
		return err
	}
	p.trace = f
	return nil
}

func (p *profiler) stop() {
	if p.trace != nil {
		rtrace.Stop()
		_ = p.trace.Close()
		p.trace = nil
	}
	if p.cpu != nil {
		pprof.StopCPUProfile()
		_ = p.cpu.Close()
		p.cpu = nil
	}
	if p.mem != "" {
		if err := writeHeapProfile(p.mem); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write heap profile: %v\n", err)
		}
		p.mem = ""
	}
}

func writeHeapProfile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

// setupProfiling inspects persistent profiling flags and enables the
// corresponding profilers. It returns a cleanup function that is safe to call
// multiple times.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	cpuProfile, err := root.PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := root.PersistentFlags().GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	tracePath, err := root.PersistentFlags().GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}

	p := &profiler{mem: memProfile}
	if cpuProfile != "" {
		if err := p.startCPU(cpuProfile); err != nil {
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
	}
	if tracePath != "" {
		if err := p.startTrace(tracePath); err != nil {
			// ensure cpu profile is stopped on error
			p.mem = ""
			p.stop()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
	}
	return p.stop, nil
}
