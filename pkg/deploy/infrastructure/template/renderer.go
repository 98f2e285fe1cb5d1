// Package template substitutes INSERT_<NAME>_HERE placeholders in deployment
// files with values captured from the environment.
//
// Rendering is two-phase: every target is read and scanned, every
// placeholder is checked against the bindings, and only when all of them
// resolve are the files written. A failed validation leaves every target
// untouched.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
)

const (
	ReasonUndeclared    = "no variable declared"
	ReasonRequiredEmpty = "required variable is empty"
)

var placeholderPattern = regexp.MustCompile(`INSERT_([A-Z0-9_]+?)_HERE`)

func Token(name string) string {
	return "INSERT_" + name + "_HERE"
}

type UnresolvedPlaceholder struct {
	File   string
	Name   string
	Reason string
}

// UnresolvedError lists every placeholder that blocked rendering.
type UnresolvedError struct {
	Placeholders []UnresolvedPlaceholder
}

func (e *UnresolvedError) Error() string {
	parts := make([]string, 0, len(e.Placeholders))
	for _, p := range e.Placeholders {
		parts = append(parts, fmt.Sprintf("%v: %v (%v)", p.File, Token(p.Name), p.Reason))
	}
	return fmt.Sprintf("%v unresolved placeholders: %v", len(e.Placeholders), strings.Join(parts, "; "))
}

func NewRenderer() service.TemplateRenderer {
	return &renderer{}
}

type renderer struct{}

type placeholder struct {
	name  string
	count int
}

type document struct {
	path         string
	content      string
	mode         os.FileMode
	placeholders []placeholder
}

func (r renderer) Scan(files []string, bindings []model.Binding) ([]model.PlaceholderStatus, error) {
	documents, err := readDocuments(files)
	if err != nil {
		return nil, err
	}
	index := indexBindings(bindings)
	var statuses []model.PlaceholderStatus
	for _, doc := range documents {
		for _, p := range doc.placeholders {
			_, reason := resolve(index, p.name)
			statuses = append(statuses, model.PlaceholderStatus{
				File:     doc.path,
				Name:     p.name,
				Count:    p.count,
				Resolved: reason == "",
				Reason:   reason,
			})
		}
	}
	return statuses, nil
}

func (r renderer) Render(files []string, bindings []model.Binding, outputDir string) (model.RenderResult, error) {
	documents, err := readDocuments(files)
	if err != nil {
		return model.RenderResult{}, err
	}
	err = assertDestinations(files, outputDir)
	if err != nil {
		return model.RenderResult{}, err
	}
	index := indexBindings(bindings)

	var unresolved []UnresolvedPlaceholder
	for _, doc := range documents {
		for _, p := range doc.placeholders {
			if _, reason := resolve(index, p.name); reason != "" {
				unresolved = append(unresolved, UnresolvedPlaceholder{File: doc.path, Name: p.name, Reason: reason})
			}
		}
	}
	if len(unresolved) > 0 {
		return model.RenderResult{}, &UnresolvedError{Placeholders: unresolved}
	}

	result := model.RenderResult{Files: make([]model.RenderedFile, 0, len(documents))}
	rendered := make([]string, 0, len(documents))
	for _, doc := range documents {
		replacements := 0
		for _, p := range doc.placeholders {
			replacements += p.count
		}
		content := placeholderPattern.ReplaceAllStringFunc(doc.content, func(token string) string {
			value, _ := resolve(index, placeholderPattern.FindStringSubmatch(token)[1])
			return value
		})
		destination := destinationPath(doc.path, outputDir)
		rendered = append(rendered, content)
		result.Files = append(result.Files, model.RenderedFile{
			Source:       doc.path,
			Destination:  destination,
			Replacements: replacements,
			Changed:      content != doc.content || destination != doc.path,
		})
	}

	if outputDir != "" {
		if err = os.MkdirAll(outputDir, 0o755); err != nil {
			return model.RenderResult{}, errors.Wrapf(err, "failed to create output directory %v", outputDir)
		}
	}
	for i, file := range result.Files {
		if !file.Changed {
			continue
		}
		err = writeAtomic(file.Destination, rendered[i], documents[i].mode)
		if err != nil {
			return model.RenderResult{}, err
		}
	}
	return result, nil
}

func readDocuments(files []string) ([]document, error) {
	documents := make([]document, 0, len(files))
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to stat template %v", path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read template %v", path)
		}
		documents = append(documents, document{
			path:         path,
			content:      string(content),
			mode:         info.Mode().Perm(),
			placeholders: scan(string(content)),
		})
	}
	return documents, nil
}

// scan returns placeholder names in order of first appearance.
func scan(content string) []placeholder {
	var placeholders []placeholder
	positions := make(map[string]int)
	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if i, ok := positions[name]; ok {
			placeholders[i].count++
			continue
		}
		positions[name] = len(placeholders)
		placeholders = append(placeholders, placeholder{name: name, count: 1})
	}
	return placeholders
}

func indexBindings(bindings []model.Binding) map[string]model.Binding {
	index := make(map[string]model.Binding, len(bindings))
	for _, binding := range bindings {
		index[binding.Name] = binding
	}
	return index
}

// resolve returns the substitution value, or a non-empty reason when the
// placeholder must block rendering. Optional variables resolve to "".
func resolve(index map[string]model.Binding, name string) (string, string) {
	binding, ok := index[name]
	if !ok {
		return "", ReasonUndeclared
	}
	if binding.Value == "" && !binding.Optional {
		return "", ReasonRequiredEmpty
	}
	return binding.Value, ""
}

func destinationPath(path, outputDir string) string {
	if outputDir == "" {
		return path
	}
	return filepath.Join(outputDir, filepath.Base(path))
}

func assertDestinations(files []string, outputDir string) error {
	seen := make(map[string]string, len(files))
	for _, path := range files {
		destination := destinationPath(path, outputDir)
		if other, ok := seen[destination]; ok {
			return errors.Errorf("templates %v and %v render to the same file %v", other, path, destination)
		}
		seen[destination] = path
	}
	return nil
}

func writeAtomic(path string, content string, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %v", path)
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.WriteString(content)
	if err == nil {
		err = tmp.Chmod(mode)
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrapf(err, "failed to write %v", path)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "failed to replace %v", path)
}
