package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koopjs/koop-output-dcat-ap-201/dcat"
	"github.com/koopjs/koop-output-dcat-ap-201/dcattest"
)

// runs the command with the given options and standard input, returning its
// exit status, standard output and standard error
func runCommand(stdin string, options ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	args := append([]string{"dcat-feed"}, options...)
	status := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return status, stdout.String(), stderr.String()
}

// returns the fixture records as a JSON array
func recordsJSON(t *testing.T) string {
	records := []map[string]any{dcattest.Dataset(), dcattest.PortalItem()}
	data, err := json.Marshal(records)
	assert.Nil(t, err)
	return string(data)
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0644)
	assert.Nil(t, err)
	return path
}

var siteOptions = []string{
	"-site-url", dcattest.SiteUrl,
	"-site-title", "Jules Goes The Distance",
	"-org-title", dcattest.OrgTitle,
	"-org-base-url", dcattest.OrgBaseUrl,
}

func TestDependencies(t *testing.T) {
	assert := assert.New(t)
	template := writeFile(t, "template.yaml", "dct:source: \"{{snippet}}\"\n")
	status, stdout, _ := runCommand("", "-deps", "-template", template)
	assert.Equal(0, status)

	fields := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Equal(dcat.RequiredFields, fields[:len(dcat.RequiredFields)])
	assert.Contains(fields, "snippet")
}

func TestFeedFromStandardInput(t *testing.T) {
	assert := assert.New(t)
	status, stdout, stderr := runCommand(recordsJSON(t), siteOptions...)
	assert.Equal(0, status, stderr)
	assert.Contains(stderr, "Wrote 2 datasets (DCAT-AP 2.0.1)")

	var catalog map[string]any
	err := json.Unmarshal([]byte(stdout), &catalog)
	assert.Nil(err)
	assert.Equal(dcattest.SiteUrl, catalog["@id"])
	datasets := catalog["dcat:dataset"].([]any)
	assert.Equal(2, len(datasets))
	assert.Equal("Lake Tahoe water clarity", datasets[1].(map[string]any)["dct:title"])
}

func TestValidatedFeedFromFile(t *testing.T) {
	assert := assert.New(t)
	records := writeFile(t, "records.json", recordsJSON(t))
	options := append([]string{"-validate", "-records", records}, siteOptions...)
	status, stdout, stderr := runCommand("", options...)
	assert.Equal(0, status, stderr)

	var catalog map[string]any
	err := json.Unmarshal([]byte(stdout), &catalog)
	assert.Nil(err)
	assert.Equal(2, len(catalog["dcat:dataset"].([]any)))
}

func TestVersion3Feed(t *testing.T) {
	assert := assert.New(t)
	options := append([]string{"-version", "3.0.0"}, siteOptions...)
	status, stdout, stderr := runCommand(recordsJSON(t), options...)
	assert.Equal(0, status, stderr)
	assert.Contains(stderr, "(DCAT-AP 3.0.0)")
	assert.Contains(stdout, `"@version": 1.1`)
}

// a validated feed isn't written when the records can't be read
func TestValidatedFeedWithBadRecords(t *testing.T) {
	assert := assert.New(t)
	status, stdout, stderr := runCommand(`[{"id": "abc", `, "-validate")
	assert.Equal(1, status)
	assert.Equal("", stdout)
	assert.Contains(stderr, "Feed failed after 0 datasets")
}

func TestBadArguments(t *testing.T) {
	assert := assert.New(t)

	status, _, stderr := runCommand("", "-version", "9.9")
	assert.Equal(1, status)
	assert.NotEmpty(stderr)

	status, _, stderr = runCommand("", "-template", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(1, status)
	assert.Contains(stderr, "Couldn't read template")

	status, _, stderr = runCommand("", "-records", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(1, status)
	assert.Contains(stderr, "Couldn't open")

	status, _, stderr = runCommand("", "-nope")
	assert.Equal(2, status)
	assert.Contains(stderr, "usage")
}
