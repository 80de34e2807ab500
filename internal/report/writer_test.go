package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vda_status_report.txt")
	text := "VDA Status Report\nReport completed: 05/03/2026\n\n"

	require.NoError(t, Write(path, text))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(got))
}

func TestWrite_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vda_status_report.txt")

	require.NoError(t, Write(path, "a much longer earlier report body\n"))
	require.NoError(t, Write(path, "short\n"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short\n", string(got))
}

func TestWrite_BadPath(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "missing", "report.txt"), "body")
	require.Error(t, err)
}
