// Package commandfake records commands instead of running them.
package commandfake

import (
	"context"
	"sync"

	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/command"
)

type Runner struct {
	// ExecuteFunc overrides the result of a command; nil means success with empty output.
	ExecuteFunc func(command command.Command) (string, error)

	mu       sync.Mutex
	commands []command.Command
}

func (r *Runner) Execute(_ context.Context, c command.Command) (string, error) {
	r.mu.Lock()
	r.commands = append(r.commands, c)
	r.mu.Unlock()
	if r.ExecuteFunc != nil {
		return r.ExecuteFunc(c)
	}
	return "", nil
}

func (r *Runner) Commands() []command.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]command.Command(nil), r.commands...)
}

// Lines returns every recorded command as "executable arg...".
func (r *Runner) Lines() []string {
	commands := r.Commands()
	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		lines = append(lines, c.String())
	}
	return lines
}
