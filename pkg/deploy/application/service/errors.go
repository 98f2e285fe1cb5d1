package service

import (
	"fmt"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

// StageError marks the pipeline step that failed.
type StageError struct {
	Step model.Step
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%v failed: %v", e.Step, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
