// Package convert turns the generated Markdown document into
// reStructuredText, either through an external converter process or the
// built-in goldmark-based renderer.
package convert

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mkrelease/mkrelease/internal/execx"
)

// Converter transforms a Markdown document into reStructuredText.
type Converter interface {
	Convert(ctx context.Context, markdown []byte) ([]byte, error)
}

// External pipes Markdown through a converter process (pandoc-style:
// Markdown on stdin, reStructuredText on stdout).
type External struct {
	runner execx.Runner
	argv   []string
	dir    string
}

// NewExternal builds a converter around the given invocation.
func NewExternal(runner execx.Runner, argv []string, dir string) *External {
	return &External{runner: runner, argv: argv, dir: dir}
}

// Convert runs the converter process.
func (e *External) Convert(ctx context.Context, markdown []byte) ([]byte, error) {
	out, err := e.runner.Output(ctx, execx.Command{
		Argv:  e.argv,
		Dir:   e.dir,
		Stdin: bytes.NewReader(markdown),
	})
	if err != nil {
		return nil, fmt.Errorf("external converter: %w", err)
	}
	return out, nil
}

// Builtin converts Markdown with the embedded renderer. It is
// deterministic: the same input always yields byte-identical output.
type Builtin struct{}

// NewBuiltin returns the built-in converter.
func NewBuiltin() *Builtin { return &Builtin{} }

// Convert renders Markdown to reStructuredText.
func (b *Builtin) Convert(_ context.Context, markdown []byte) ([]byte, error) {
	return ToRST(markdown)
}

var (
	_ Converter = (*External)(nil)
	_ Converter = (*Builtin)(nil)
)
