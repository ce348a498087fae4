package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProcessMarkdown(t *testing.T) {
	in := strings.Join([]string{
		"# stage",
		"",
		"```go",
		`import "github.com/go-drift/stage/pkg/stage"`,
		"```",
		"",
		"Package stage binds a scene graph to a drawing surface.",
		"",
		"## Index",
		"",
		"- [func Init](<#Init>)",
		"",
		"## func Init",
		"<details><summary>Example</summary>",
		"<p>",
		"body",
		"</p>",
		"</details>",
	}, "\n")

	got := processMarkdown(in)
	for _, gone := range []string{"# stage\n", "import", "## Index", "[func Init]", "<details>", "<p>"} {
		if strings.Contains(got, gone) {
			t.Errorf("expected %q stripped, got:\n%s", gone, got)
		}
	}
	for _, kept := range []string{"Package stage binds", "## func Init", "**Example:**", "body"} {
		if !strings.Contains(got, kept) {
			t.Errorf("expected %q kept, got:\n%s", kept, got)
		}
	}
}

func TestPackagesExist(t *testing.T) {
	root, err := findRepoRoot()
	if err != nil {
		t.Fatal(err)
	}
	for _, pkg := range packages {
		if _, err := os.Stat(filepath.Join(root, pkg.Path)); err != nil {
			t.Errorf("documented package %s missing: %v", pkg.Path, err)
		}
	}
}

func TestIndexPage(t *testing.T) {
	page := indexPage(packages[:2])
	if !strings.HasPrefix(page, "# API reference\n") {
		t.Errorf("unexpected header: %q", page)
	}
	if !strings.Contains(page, "- [Sessions](stage.md): `pkg/stage`") {
		t.Errorf("missing stage entry:\n%s", page)
	}
}
