// Package credentials decodes the base64 service-account key handed to the
// pipeline and writes it to disk for the cloud CLI.
package credentials

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
)

var (
	ErrEmptyCredential = errors.New("credential is empty")
	ErrNotJSONObject   = errors.New("decoded credential is not a JSON object")
)

func NewCredentialWriter() service.CredentialWriter {
	return &writer{}
}

type writer struct{}

// Write validates the credential fully before touching path.
func (w writer) Write(encoded string, path string) error {
	key, err := Decode(encoded)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New("credential path is empty")
	}
	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return errors.Wrapf(err, "failed to create directory for %v", path)
	}
	err = os.WriteFile(path, key, 0o600)
	if err != nil {
		return errors.Wrapf(err, "failed to write credential to %v", path)
	}
	return nil
}

// Decode strips whitespace (CI systems wrap long secrets), decodes standard
// base64 and checks the result is a JSON object.
func Decode(encoded string) ([]byte, error) {
	compact := strings.Join(strings.Fields(encoded), "")
	if compact == "" {
		return nil, ErrEmptyCredential
	}
	key, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, errors.Wrap(err, "credential is not valid base64")
	}
	var object map[string]interface{}
	if err = json.Unmarshal(key, &object); err != nil || object == nil {
		return nil, ErrNotJSONObject
	}
	return key, nil
}
