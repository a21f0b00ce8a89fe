package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulltoken/heimdall2/hdf"
	heimtest "github.com/nulltoken/heimdall2/internal/testing"
)

func TestLoadPipeline_Integration(t *testing.T) {
	pipe := newPipeline()

	path := heimtest.WriteReport(t, "scan.json", heimtest.MinimalExecution("ssh-baseline"))

	result, err := pipe.orchestrator.LoadPath(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.Converted)
	require.Len(t, result.EvaluationIDs, 1)
	assert.Equal(t, 1, pipe.store.Len())
	assert.True(t, pipe.selection.IsSelected(result.EvaluationIDs[0]))
}

func TestLoadOne_NoMatch(t *testing.T) {
	pipe := newPipeline()
	path := heimtest.WriteReport(t, "notes.txt", "meeting notes, nothing scanner-shaped")

	result := loadOne(context.Background(), path, loadOptions{pipe: pipe, maxBytes: 1 << 20})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "no fingerprints matched")
	assert.Equal(t, 0, pipe.store.Len())
}

func TestLoadOne_MissingFile(t *testing.T) {
	pipe := newPipeline()

	result := loadOne(context.Background(), filepath.Join(t.TempDir(), "absent.json"), loadOptions{pipe: pipe, maxBytes: 1 << 20})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "absent.json")
}

func TestWriteNormalized(t *testing.T) {
	pipe := newPipeline()
	path := heimtest.WriteReport(t, "scan.json", heimtest.MinimalExecution("ssh-baseline"))

	result, err := pipe.orchestrator.LoadPath(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.EvaluationIDs, 1)

	outDir := t.TempDir()
	outPath, err := writeNormalized(pipe.store, result.EvaluationIDs[0], outDir)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(outPath), "scan-"))

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)

	doc, err := hdf.ParseVersioned(string(content))
	require.NoError(t, err)
	assert.Equal(t, hdf.KindExecution, doc.Kind)
	assert.Equal(t, "ssh-baseline", doc.Execution.Profiles[0].Name)
}

func TestWriteNormalized_UnknownID(t *testing.T) {
	pipe := newPipeline()

	_, err := writeNormalized(pipe.store, "nope", t.TempDir())
	assert.Error(t, err)
}

func TestReadReport_File(t *testing.T) {
	path := heimtest.WriteReport(t, "burp-export.xml", "issues burpVersion")

	name, data, err := readReport(context.Background(), path, false, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "burp-export.xml", name)
	assert.Equal(t, "issues burpVersion", string(data))
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://ci.example.com/scan.json"))
	assert.True(t, isURL("http://ci.example.com/scan.json"))
	assert.False(t, isURL("scan.json"))
	assert.False(t, isURL("/tmp/scan.json"))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0123abcd", shortID("0123abcd-ffff"))
	assert.Equal(t, "tiny", shortID("tiny"))
}
