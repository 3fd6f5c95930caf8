package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSimple(t *testing.T) {
	out, err := Render("Hello {{.name}}", map[string]any{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(out))
}

func TestRenderEmptyPayload(t *testing.T) {
	out, err := Render("Hello", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(out))
}

func TestRenderMissingKeyFails(t *testing.T) {
	_, err := Render("{{.missing}}", map[string]any{})
	assert.Error(t, err)
}

func TestRenderMalformedTemplateFails(t *testing.T) {
	_, err := Render("{{.unclosed", map[string]any{})
	assert.Error(t, err)
}

func TestEnvFunc(t *testing.T) {
	t.Setenv("MKRELEASE_RENDER_TEST", "42")
	out, err := Render(`{{env "MKRELEASE_RENDER_TEST"}}`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "42", string(out))
}

func TestDockerLinkFunc(t *testing.T) {
	out, err := Render(`{{with dockerLink "tcp://172.17.0.5:5432"}}{{.addr}}:{{.port}}{{end}}`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "172.17.0.5:5432", string(out))

	_, err = Render(`{{dockerLink "not-a-link"}}`, map[string]any{})
	assert.Error(t, err)
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	tplPath := filepath.Join(dir, "README.md.tmpl")
	require.NoError(t, os.WriteFile(tplPath, []byte("# {{.title}}\n"), 0o600))

	out, err := RenderFile(tplPath, map[string]any{"title": "demo"})
	require.NoError(t, err)
	assert.Equal(t, "# demo\n", string(out))

	_, err = RenderFile(filepath.Join(dir, "missing.tmpl"), nil)
	assert.Error(t, err)
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	// No temp residue left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomicBadDirectory(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "README.md"), []byte("x"), 0o644)
	assert.Error(t, err)
}
