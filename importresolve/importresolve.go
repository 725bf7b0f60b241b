// Copyright 2018 The CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package importresolve implements the import resolver: parsing an
// `import` or `from ... import` statement, relative to the enclosing
// module's dotted name and package-ness, into a mapping from each bound
// alias to the module it came from and the name it imported.
package importresolve

import (
	"fmt"
	"strings"

	"golang.org/x/mod/module"

	"github.com/pyforks/beniget-ng/ast"
)

// Info is the resolved origin of one imported alias: the dotted module it
// came from, and the name imported from it (empty for a plain `import m`
// statement, and "*" for a wildcard import).
type Info struct {
	OriginModule string
	ImportedName string
}

// Target returns the fully qualified name of the imported symbol:
// "module.name", or just "module" when ImportedName is empty.
func (i Info) Target() string {
	if i.ImportedName != "" {
		return i.OriginModule + "." + i.ImportedName
	}
	return i.OriginModule
}

// MalformedImportError reports that ParseImport was asked to resolve
// something other than *ast.Import or *ast.ImportFrom; it is
// the one error kind the resolver returns rather than downgrading to a
// warning, since there is no sensible alias mapping to produce.
type MalformedImportError struct {
	Node ast.Stmt
}

func (e *MalformedImportError) Error() string {
	return fmt.Sprintf("import resolver: unexpected node type %T", e.Node)
}

// ParseImport resolves the aliases bound by an import statement into their
// origin (module, name) pairs, keyed by the *ast.Alias AST node. modname is
// the fully-qualified name of the module being analyzed (without any
// ".__init__" suffix);
// isPackage indicates whether that module is a package (so that `.` in a
// relative import resolves from the package itself rather than its
// parent).
// ParseImport also reports, via warn (which may be nil), every alias whose
// resolved origin module fails ValidOriginShape -- a dotted path that could
// not have come from a well-formed import statement. This never changes
// the resolved Info; it is a diagnostic-only pass.
func ParseImport(node ast.Stmt, modname string, isPackage bool, warn func(alias *ast.Alias, origin string)) (map[*ast.Alias]Info, error) {
	result := make(map[*ast.Alias]Info)
	check := func(al *ast.Alias, origin string) {
		if warn != nil && !ValidOriginShape(origin) {
			warn(al, origin)
		}
	}

	switch n := node.(type) {
	case *ast.Import:
		for _, al := range n.Names {
			if al.AsName != "" {
				result[al] = Info{OriginModule: al.Name}
			} else {
				// The submodule dependency, if any, is not recorded: this
				// analysis maps the names bound by imports, not the
				// module's dependency graph.
				result[al] = Info{OriginModule: firstComponent(al.Name)}
			}
			check(al, result[al].OriginModule)
		}

	case *ast.ImportFrom:
		currentModule := splitDotted(modname)

		var module_ []string
		if n.Module != "" {
			module_ = splitDotted(n.Module)
		}

		var sourceModule []string
		if n.Level == 0 {
			sourceModule = module_
		} else {
			var relative []string
			if n.Level == 1 {
				if isPackage {
					relative = currentModule
				} else {
					relative = dropLast(currentModule, 1)
				}
			} else {
				if isPackage {
					relative = dropLast(currentModule, n.Level-1)
				} else {
					relative = dropLast(currentModule, n.Level)
				}
			}
			if len(relative) == 0 {
				// A relative import that climbs past the module's root
				// makes no semantic sense; pad with empty components
				// instead of erroring.
				relative = make([]string, n.Level)
			}
			sourceModule = append(append([]string(nil), relative...), module_...)
		}

		origin := strings.Join(sourceModule, ".")
		for _, alias := range n.Names {
			result[alias] = Info{OriginModule: origin, ImportedName: alias.Name}
			check(alias, origin)
		}

	default:
		return nil, &MalformedImportError{Node: node}
	}

	return result, nil
}

func firstComponent(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}

func splitDotted(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// dropLast returns parts with its last n elements removed, never returning
// a negative-length slice.
func dropLast(parts []string, n int) []string {
	if n >= len(parts) {
		return nil
	}
	if n <= 0 {
		return parts
	}
	return parts[:len(parts)-n]
}

// ValidOriginShape reports whether origin looks like a syntactically
// plausible dotted module path (letters, digits, dots, underscores - no
// empty components other than the explicit padding an over-climbing
// relative import produces). It delegates the character-class and
// dot-placement checks to golang.org/x/mod/module's import-path validator,
// treating the whole dotted name as a single path element since Python
// module names have no slash-separated structure.
func ValidOriginShape(origin string) bool {
	if origin == "" {
		return true // over-climbing relative import, padded with empty parts
	}
	for _, part := range strings.Split(origin, ".") {
		if part == "" {
			continue // padding component from an over-climbing relative import
		}
		if err := module.CheckImportPath(part); err != nil {
			return false
		}
	}
	return true
}
