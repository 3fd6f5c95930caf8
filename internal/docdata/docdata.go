// Package docdata obtains the documentation-data payload by running the
// configured doc-data script and parsing its stdout.
//
// The payload is an opaque structured value; no schema is assumed beyond
// "a mapping the template can address". Supported input formats mirror
// the common doc-script conventions: JSON, YAML and dotenv-style
// KEY=VALUE lines, with auto-detection by default.
package docdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mkrelease/mkrelease/internal/execx"
	"github.com/mkrelease/mkrelease/internal/logfields"
)

// Format identifies the payload encoding emitted by the doc-data script.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatEnv  Format = "env"
)

// Payload is the structured value handed to the template renderer.
type Payload map[string]any

// Collector runs the doc-data script and decodes its output.
type Collector struct {
	runner execx.Runner
	argv   []string
	dir    string
	format Format
}

// NewCollector builds a collector for the given script invocation.
func NewCollector(runner execx.Runner, argv []string, dir string, format Format) *Collector {
	if format == "" {
		format = FormatAuto
	}
	return &Collector{runner: runner, argv: argv, dir: dir, format: format}
}

// Collect executes the script and parses its stdout into a payload.
func (c *Collector) Collect(ctx context.Context) (Payload, error) {
	slog.Debug("Running documentation-data script",
		logfields.Command(strings.Join(c.argv, " ")))

	out, err := c.runner.Output(ctx, execx.Command{Argv: c.argv, Dir: c.dir})
	if err != nil {
		return nil, fmt.Errorf("doc-data script: %w", err)
	}

	payload, err := Parse(out, c.format)
	if err != nil {
		return nil, fmt.Errorf("doc-data payload: %w", err)
	}
	return payload, nil
}

// Parse decodes raw payload bytes according to the given format.
func Parse(data []byte, format Format) (Payload, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	case FormatEnv:
		return parseEnv(data)
	case FormatAuto, "":
		return parseAuto(data)
	default:
		return nil, fmt.Errorf("unknown payload format %q", format)
	}
}

// parseAuto detects the format from the payload's shape: documents
// starting with '{' or '[' are treated as JSON, everything else as YAML
// (which accepts JSON anyway, so detection only affects error messages).
func parseAuto(data []byte) (Payload, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return parseJSON(data)
	}
	return parseYAML(data)
}

func parseJSON(data []byte) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return payload, nil
}

func parseYAML(data []byte) (Payload, error) {
	var payload Payload
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if payload == nil {
		payload = Payload{}
	}
	return payload, nil
}

func parseEnv(data []byte) (Payload, error) {
	vars, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	payload := make(Payload, len(vars))
	for k, v := range vars {
		payload[k] = v
	}
	return payload, nil
}
