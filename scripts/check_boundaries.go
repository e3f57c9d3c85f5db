// Command check_boundaries enforces the layering of every service under
// contexts/: domain stays pure, application talks to ports and shared
// envelopes only, and no service imports another.
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "github.com/smithjps512/garden-prayer-campaigns-sub001"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists the module-internal prefixes a layer may import: service
// entries are relative to the service root, shared ones to the module root.
type layerRule struct {
	service  []string
	shared   []string
	denyDeps bool
}

var layerRules = map[string]layerRule{
	"domain": {
		service:  []string{"domain"},
		denyDeps: true,
	},
	"application": {
		service: []string{"application", "domain", "ports"},
		shared:  []string{"internal/shared"},
	},
	"ports": {
		service: []string{"domain", "ports"},
		shared:  []string{"internal/shared"},
	},
}

func main() {
	root := "contexts"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	violations := collectViolations(root)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[0], parts[1])
		layer := ""
		if len(parts) > 3 {
			layer = parts[2]
		}
		violations = append(violations, validateFile(path, filepath.ToSlash(path), layer, servicePrefix)...)
		return nil
	})

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	return violations
}

func validateFile(path string, displayPath string, layer string, servicePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: displayPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		line := fset.Position(imp.Pos()).Line
		add := func(rule string) {
			violations = append(violations, violation{File: displayPath, Line: line, Import: importPath, Rule: rule})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
			add("cross-service imports are forbidden")
			continue
		}

		rule, ok := layerRules[layer]
		if !ok {
			continue
		}
		switch {
		case isStdlib(importPath):
		case hasPrefix(importPath, modulePath):
			if !rule.allows(importPath, servicePrefix) {
				add(layer + " import is outside explicit allowlist")
			}
		case rule.denyDeps:
			add(layer + " must not import third-party packages")
		}
	}
	return violations
}

func (r layerRule) allows(importPath string, servicePrefix string) bool {
	for _, p := range r.service {
		if hasPrefix(importPath, servicePrefix+"/"+p) {
			return true
		}
	}
	for _, p := range r.shared {
		if hasPrefix(importPath, modulePath+"/"+p) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
