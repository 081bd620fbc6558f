package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "spokesperson version")
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "built-in catalog is valid: 6 questions")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("questions:\n  - prompt: Pick\n    type: choice\n    key: k\n"), 0o600))
	_, err = execute(t, "validate", bad)
	assert.Error(t, err)
}

func TestHistoryCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "answers.db")
	out, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions recorded.")
}

func TestUnknownStateBackend(t *testing.T) {
	_, err := execute(t, "validate", "--state", "postgres")
	assert.Error(t, err)
}
