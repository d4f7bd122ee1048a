package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"fixall/internal/fixall"
	"fixall/internal/source"
	"fixall/internal/ui"
)

type runOutcome struct {
	result *fixall.Result
	err    error
}

// runFixAllWithUI runs the engine in the background and renders its events
// until the run finishes.
func runFixAllWithUI(ctx context.Context, title string, dp fixall.DiagnosticsProvider, opts []fixall.Option,
	sol *source.Solution, req fixall.Request, fixer fixall.FixProvider) (*fixall.Result, error) {
	events := make(chan fixall.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		engine := fixall.NewEngine(dp, append(opts[:len(opts):len(opts)], fixall.WithProgress(fixall.ChannelSink{Ch: events}))...)
		res, err := engine.Run(ctx, sol, req, fixer)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// дочитываем события, чтобы движок не заблокировался на канале
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
