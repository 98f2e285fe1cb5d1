package service

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

// assertBuildInputsRendered rejects an output directory when a rendered file
// lies inside a build context: the build would read the template, not the
// rendered copy.
func assertBuildInputsRendered(config model.Deployment) error {
	if config.OutputDir == "" {
		return nil
	}
	for _, target := range config.RenderTargets() {
		for _, component := range config.Components {
			inside, err := withinDir(component.Context, target)
			if err != nil {
				return err
			}
			if inside {
				return errors.Errorf(
					"%v is in the build context of %v and is rendered to %v, render it in place",
					target, component.Name, config.OutputDir,
				)
			}
		}
	}
	return nil
}

func withinDir(dir, path string) (bool, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, errors.Wrapf(err, "failed to resolve %v", dir)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to resolve %v", path)
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
