package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calbridge/calbridge/internal/service"
)

func TestRenderToolDocs_CoversEveryTool(t *testing.T) {
	markdown, err := renderToolDocs()
	require.NoError(t, err)

	for _, def := range service.Catalog() {
		assert.Contains(t, markdown, "### "+def.Name)
	}
}

func TestRenderToolDocs_MarksRequiredArguments(t *testing.T) {
	markdown, err := renderToolDocs()
	require.NoError(t, err)

	assert.Contains(t, markdown, "- `summary` (required): ")
	assert.Contains(t, markdown, "- `start` (required): ")
	assert.Contains(t, markdown, "- `eventId` (required): ")
	assert.Contains(t, markdown, "- `maxResults` (optional): ")
}

func TestRunGenerateDocs_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.md")
	require.NoError(t, runGenerateDocs(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# MCP Tools Reference")
}
