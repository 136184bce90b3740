package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"experimental/internal/driver"
	"experimental/internal/ui"
)

type checkOutcome struct {
	result *driver.CheckResult
	err    error
}

// runCheckWithUI runs a check while a progress view draws on stderr.
func runCheckWithUI(ctx context.Context, title string, paths []string, opts driver.CheckOptions) (*driver.CheckResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Check(ctx, paths, opts)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// после Ctrl-C модель больше не читает; дочитываем, чтобы проверка не зависла
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
