package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Stage", KeyStage, "readme", Stage("readme")},
		{"Target", KeyTarget, "README.md", Target("README.md")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Command", KeyCommand, "pandoc", Command("pandoc")},
		{"Index", KeyIndex, "pypi", Index("pypi")},
		{"Artifact", KeyArtifact, "dist/a.whl", Artifact("dist/a.whl")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, tc.attr.String(), tc.attrKey)
			assert.Contains(t, tc.attr.String(), tc.attrVal)
		})
	}
}

func TestErrorHelper(t *testing.T) {
	assert.Contains(t, Error(errors.New("boom")).String(), "boom")
	assert.Contains(t, Error(nil).String(), KeyError)
}
