package template

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

const proxyTemplate = `server {
    listen 80;
    server_name INSERT_BOT_DOMAIN_HERE;
    location /github/ {
        proxy_pass http://aelita:6000/?client_id=INSERT_GITHUB_CLIENT_ID_HERE;
    }
}
`

const manifestTemplate = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: aelita
spec:
  template:
    spec:
      containers:
        - name: aelita
          image: gcr.io/aelita-bot/aelita:INSERT_VERSION_HERE
          env:
            - name: GITHUB_CLIENT_ID
              value: "client_id=INSERT_GITHUB_CLIENT_ID_HERE"
            - name: SENTRY_DSN
              value: "INSERT_SENTRY_DSN_HERE"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func bindings() []model.Binding {
	return []model.Binding{
		{Name: model.VersionVariable, Value: "v42"},
		{Name: "GITHUB_CLIENT_ID", Value: "abc"},
		{Name: "BOT_DOMAIN", Value: "example.com"},
		{Name: "SENTRY_DSN", Optional: true},
	}
}

func TestRenderSubstitutesEveryOccurrence(t *testing.T) {
	dir := t.TempDir()
	proxy := writeFile(t, dir, "nginx.conf", proxyTemplate)
	manifest := writeFile(t, dir, "deployment.yaml", manifestTemplate)

	result, err := NewRenderer().Render([]string{manifest, proxy}, bindings(), "")
	require.NoError(t, err)

	renderedProxy := readFile(t, proxy)
	assert.Contains(t, renderedProxy, "server_name example.com;")
	assert.Contains(t, renderedProxy, "client_id=abc")
	assert.NotContains(t, renderedProxy, "INSERT_")
	assert.Equal(t, strings.NewReplacer(
		"INSERT_BOT_DOMAIN_HERE", "example.com",
		"INSERT_GITHUB_CLIENT_ID_HERE", "abc",
	).Replace(proxyTemplate), renderedProxy, "no other substring may change")

	renderedManifest := readFile(t, manifest)
	assert.Contains(t, renderedManifest, "image: gcr.io/aelita-bot/aelita:v42")
	assert.Contains(t, renderedManifest, `value: "client_id=abc"`)
	assert.Contains(t, renderedManifest, `value: ""`)
	assert.NotContains(t, renderedManifest, "INSERT_")

	require.Len(t, result.Files, 2)
	assert.Equal(t, 3, result.Files[0].Replacements)
	assert.Equal(t, 2, result.Files[1].Replacements)
	assert.True(t, result.Files[0].Changed)
}

func TestRenderFailsWithoutPartialWrites(t *testing.T) {
	dir := t.TempDir()
	proxy := writeFile(t, dir, "nginx.conf", proxyTemplate)
	manifest := writeFile(t, dir, "deployment.yaml", manifestTemplate+"  secret: INSERT_VIEW_SECRET_HERE\n")

	b := bindings()
	b[1].Value = ""

	_, err := NewRenderer().Render([]string{proxy, manifest}, b, "")
	require.Error(t, err)

	var unresolved *UnresolvedError
	require.True(t, errors.As(err, &unresolved))
	assert.ElementsMatch(t, []UnresolvedPlaceholder{
		{File: proxy, Name: "GITHUB_CLIENT_ID", Reason: ReasonRequiredEmpty},
		{File: manifest, Name: "GITHUB_CLIENT_ID", Reason: ReasonRequiredEmpty},
		{File: manifest, Name: "VIEW_SECRET", Reason: ReasonUndeclared},
	}, unresolved.Placeholders)
	assert.Contains(t, err.Error(), "INSERT_VIEW_SECRET_HERE")

	assert.Equal(t, proxyTemplate, readFile(t, proxy))
	assert.Equal(t, manifestTemplate+"  secret: INSERT_VIEW_SECRET_HERE\n", readFile(t, manifest))
}

func TestRenderIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	proxy := writeFile(t, dir, "nginx.conf", proxyTemplate)

	_, err := NewRenderer().Render([]string{proxy}, bindings(), "")
	require.NoError(t, err)
	first := readFile(t, proxy)
	info, err := os.Stat(proxy)
	require.NoError(t, err)

	result, err := NewRenderer().Render([]string{proxy}, bindings(), "")
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, proxy))
	assert.False(t, result.Files[0].Changed)
	assert.Zero(t, result.Files[0].Replacements)

	again, err := os.Stat(proxy)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime(), "unchanged file must not be rewritten")
}

func TestRenderToOutputDir(t *testing.T) {
	dir := t.TempDir()
	proxy := writeFile(t, dir, "nginx.conf", proxyTemplate)
	out := filepath.Join(dir, "rendered")

	result, err := NewRenderer().Render([]string{proxy}, bindings(), out)
	require.NoError(t, err)
	assert.Equal(t, proxyTemplate, readFile(t, proxy), "source stays a template")
	assert.Equal(t, filepath.Join(out, "nginx.conf"), result.Files[0].Destination)
	assert.Contains(t, readFile(t, result.Files[0].Destination), "server_name example.com;")
}

func TestRenderRejectsCollidingDestinations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	first := writeFile(t, filepath.Join(dir, "a"), "site.conf", proxyTemplate)
	second := writeFile(t, filepath.Join(dir, "b"), "site.conf", proxyTemplate)

	_, err := NewRenderer().Render([]string{first, second}, bindings(), filepath.Join(dir, "out"))
	require.Error(t, err)
}

func TestRenderPreservesValuesLiterally(t *testing.T) {
	dir := t.TempDir()
	proxy := writeFile(t, dir, "nginx.conf", "secret=INSERT_VIEW_SECRET_HERE\n")

	_, err := NewRenderer().Render([]string{proxy}, []model.Binding{
		{Name: "VIEW_SECRET", Value: `$1 \n .* INSERT_OTHER_HERE`},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "secret=$1 \\n .* INSERT_OTHER_HERE\n", readFile(t, proxy))
}

func TestRenderMissingFile(t *testing.T) {
	_, err := NewRenderer().Render([]string{filepath.Join(t.TempDir(), "missing.conf")}, bindings(), "")
	require.Error(t, err)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	proxy := writeFile(t, dir, "nginx.conf", proxyTemplate+"# INSERT_BOT_DOMAIN_HERE again\n# INSERT_SIGNUP_DOMAIN_HERE\n")

	statuses, err := NewRenderer().Scan([]string{proxy}, bindings())
	require.NoError(t, err)
	assert.Equal(t, []model.PlaceholderStatus{
		{File: proxy, Name: "BOT_DOMAIN", Count: 2, Resolved: true},
		{File: proxy, Name: "GITHUB_CLIENT_ID", Count: 1, Resolved: true},
		{File: proxy, Name: "SIGNUP_DOMAIN", Count: 1, Resolved: false, Reason: ReasonUndeclared},
	}, statuses)
	assert.Equal(t, proxyTemplate+"# INSERT_BOT_DOMAIN_HERE again\n# INSERT_SIGNUP_DOMAIN_HERE\n", readFile(t, proxy))
}
