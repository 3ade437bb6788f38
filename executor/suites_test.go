package executor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContractFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadAllContractsMergesEveryYAMLFileInDirectory(t *testing.T) {
	dir := t.TempDir()
	writeContractFile(t, dir, "core.yaml", `
test_suites:
  core:
    categories:
      basic:
        tests:
          - name: "t1"
            steps:
              - action: init
`)
	writeContractFile(t, dir, "extra.yaml", `
test_suites:
  extra:
    categories:
      basic:
        tests:
          - name: "t2"
            steps:
              - action: init
`)
	writeContractFile(t, dir, "README.md", "not a contract file, must be ignored")

	cat, err := LoadAllContracts(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"core", "extra"}, cat.SuiteNames())
}

func TestLoadAllContractsReportsEveryBrokenFileNotJustTheFirst(t *testing.T) {
	dir := t.TempDir()
	writeContractFile(t, dir, "good.yaml", `
test_suites:
  good:
    categories:
      basic:
        tests:
          - name: "t1"
            steps:
              - action: init
`)
	writeContractFile(t, dir, "bad_a.yaml", `test_suites: [this is not a mapping`)
	writeContractFile(t, dir, "bad_b.yaml", `test_suites: [also not a mapping`)

	_, err := LoadAllContracts(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad_a.yaml")
	assert.Contains(t, err.Error(), "bad_b.yaml")
}

func TestLoadAllContractsDedupsASharedBrokenIncludeAcrossTopLevelFiles(t *testing.T) {
	dir := t.TempDir()
	writeContractFile(t, dir, "broken_shared.yaml", `test_suites: [not a mapping`)
	writeContractFile(t, dir, "a.yaml", `adapter_actions: !include broken_shared.yaml`)
	writeContractFile(t, dir, "b.yaml", `adapter_actions: !include broken_shared.yaml`)

	_, err := LoadAllContracts(dir)
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "broken_shared.yaml"),
		"the shared broken include should be reported once, not once per top-level file that reaches it")
}
