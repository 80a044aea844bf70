package main

import (
	"fmt"
	"os"
)

const starterConfig = `# unify site configuration
site:
  root: .
  template_dirs:
    - layouts
    - components

build:
  output: dist
  pretty_urls: true
  # cache: .unify-cache.db
  git_metadata: false

scan:
  enabled: true
  fail_on_error: false

watch:
  debounce_ms: 200

serve:
  addr: ":8080"
  metrics: false

logging:
  level: info
  format: text
`

// runInit writes a starter configuration file.
func runInit(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
