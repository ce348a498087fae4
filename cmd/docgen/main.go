// Command docgen writes the API reference of the public stage packages to
// docs/api using gomarkdoc. Run it from anywhere inside the repository.
package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Package is one documented package.
type Package struct {
	Name  string
	Title string
	Path  string
}

// Packages in the order they appear in the index.
var packages = []Package{
	{Name: "stage", Title: "Sessions", Path: "pkg/stage"},
	{Name: "scene", Title: "Scene graph", Path: "pkg/scene"},
	{Name: "render", Title: "Painters", Path: "pkg/render"},
	{Name: "animation", Title: "Animation", Path: "pkg/animation"},
	{Name: "input", Title: "Pointer input", Path: "pkg/input"},
	{Name: "graphics", Title: "Geometry and colour", Path: "pkg/graphics"},
	{Name: "frame", Title: "Frame loop", Path: "pkg/frame"},
	{Name: "config", Title: "stage.yaml", Path: "pkg/config"},
	{Name: "debug", Title: "Debug server", Path: "pkg/debug"},
	{Name: "errors", Title: "Errors and logging", Path: "pkg/errors"},
	{Name: "testing", Title: "Test harness", Path: "pkg/testing"},
}

func main() {
	root, err := findRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding repo root: %v\n", err)
		os.Exit(1)
	}
	if err := ensureGomarkdoc(); err != nil {
		fmt.Fprintf(os.Stderr, "Error ensuring gomarkdoc: %v\n", err)
		os.Exit(1)
	}

	apiDir := filepath.Join(root, "docs", "api")
	if err := os.MkdirAll(apiDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating api directory: %v\n", err)
		os.Exit(1)
	}

	var written []Package
	for _, pkg := range packages {
		if _, err := os.Stat(filepath.Join(root, pkg.Path)); os.IsNotExist(err) {
			fmt.Printf("Skipping %s (not found)\n", pkg.Name)
			continue
		}
		fmt.Printf("Generating docs for %s...\n", pkg.Name)
		ok, err := generatePackageDocs(root, pkg, apiDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating docs for %s: %v\n", pkg.Name, err)
			os.Exit(1)
		}
		if ok {
			written = append(written, pkg)
		}
	}

	if err := os.WriteFile(filepath.Join(apiDir, "README.md"), []byte(indexPage(written)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing index: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nWrote %d pages to %s\n", len(written), apiDir)
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find go.mod in any parent directory")
		}
		dir = parent
	}
}

func ensureGomarkdoc() error {
	if _, err := exec.LookPath("gomarkdoc"); err == nil {
		return nil
	}

	fmt.Println("Installing gomarkdoc...")
	cmd := exec.Command("go", "install", "github.com/princjef/gomarkdoc/cmd/gomarkdoc@latest")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// generatePackageDocs writes one page. It reports false when gomarkdoc
// produced nothing for the package.
func generatePackageDocs(root string, pkg Package, apiDir string) (bool, error) {
	cmd := exec.Command("gomarkdoc", "./"+pkg.Path)
	cmd.Dir = root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("gomarkdoc: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	content := stdout.String()
	if content == "" {
		fmt.Printf("  Warning: no documentation generated for %s\n", pkg.Name)
		return false, nil
	}

	page := fmt.Sprintf("# %s\n\n", pkg.Title) + processMarkdown(content)
	return true, os.WriteFile(filepath.Join(apiDir, pkg.Name+".md"), []byte(page), 0o644)
}

func indexPage(pkgs []Package) string {
	var b strings.Builder
	b.WriteString("# API reference\n\n")
	for _, pkg := range pkgs {
		fmt.Fprintf(&b, "- [%s](%s.md): `%s`\n", pkg.Title, pkg.Name, pkg.Path)
	}
	return b.String()
}

// processMarkdown strips the parts of gomarkdoc output that the page
// header replaces: the package heading, the index and the import block.
func processMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	var result []string
	skipBlock := false
	inIndex := false

	for i, line := range lines {
		if i == 0 && strings.HasPrefix(line, "# ") {
			continue
		}

		// The index runs from "## Index" to the next ## heading
		if line == "## Index" {
			inIndex = true
			continue
		}
		if inIndex {
			if !strings.HasPrefix(line, "## ") {
				continue
			}
			inIndex = false
		}

		if strings.HasPrefix(line, "```go") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "import ") {
			skipBlock = true
		}
		if skipBlock {
			if line == "```" {
				skipBlock = false
			}
			continue
		}

		if strings.HasPrefix(line, "<details><summary>") && strings.HasSuffix(line, "</summary>") {
			summary := strings.TrimSuffix(strings.TrimPrefix(line, "<details><summary>"), "</summary>")
			result = append(result, "", fmt.Sprintf("**%s:**", summary), "")
			continue
		}
		if line == "</details>" || line == "<p>" || line == "</p>" {
			continue
		}

		result = append(result, line)
	}

	return strings.Join(result, "\n")
}
