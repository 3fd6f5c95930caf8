package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# mkrelease pipeline configuration
project:
  name: myproject

readme:
  # Generated Markdown document.
  output: README.md
  # Template rendered against the doc-data payload.
  template: misc/_doc/README.md.tmpl
  # Documentation-data script; must print a structured payload on stdout.
  data_command: ["python", "misc/_doc/README.py"]
  # Payload format: auto, json, yaml or env.
  payload_format: auto
  # Source trees whose changes make the README stale.
  sources:
    - myproject
    - misc/_doc

convert:
  output: README.rst
  # External Markdown -> reStructuredText converter reading stdin and
  # writing stdout. Omit to use the built-in converter.
  # command: ["pandoc", "--from=markdown", "--to=rst"]

packaging:
  command: ["python", "setup.py"]
  directives: ["build", "sdist", "bdist_wheel"]
  dist_dir: dist
  clean_paths: ["build", "dist"]

publish:
  index: pypi
  # allow_dirty: true

history:
  path: .mkrelease/history.db
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
