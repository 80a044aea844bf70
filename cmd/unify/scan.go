package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/unify/internal/config"
	"git.home.luguber.info/inful/unify/internal/scan"
)

// runScan walks the built output tree and reports scanner findings
// without rebuilding anything.
func runScan(cfg *config.Config, asJSON bool) error {
	root := os.DirFS(cfg.Build.Output)

	var findings []scan.Finding
	err := fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(p), ".html") {
			return nil
		}
		data, err := fs.ReadFile(root, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		findings = append(findings, scan.Scan(string(data), p)...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk output %s: %w", cfg.Build.Output, err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(findings); err != nil {
			return err
		}
	} else {
		for _, f := range findings {
			fmt.Printf("%s [%s] %s: %s\n", f.Severity, f.Rule, filepath.ToSlash(f.Path), f.Message)
		}
		fmt.Printf("%d findings\n", len(findings))
	}

	for _, f := range findings {
		if f.Severity == scan.SeverityError {
			return fmt.Errorf("scan reported error-severity findings")
		}
	}
	return nil
}
