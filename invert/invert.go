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

// Package invert builds the use-def view: given the def-use chains
// produced by a resolve.Analyze call, it answers "which definitions may
// reach this read" rather than "who reads this definition".
package invert

import (
	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/defs"
	"github.com/pyforks/beniget-ng/resolve"
)

// Chains maps every Name node read in the module (Load or Del context) to
// the ordered, deduplicated list of Defs that may reach it. A Name with no
// reaching definition still gets an entry -- possibly empty -- so the map
// is total over every Name node in module.
type Chains struct {
	defs map[*ast.Name][]*defs.Def
}

// Build inverts result's def-use chains against module.
func Build(result *resolve.Result, module *ast.Module) *Chains {
	c := &Chains{defs: make(map[*ast.Name][]*defs.Def)}

	seen := make(map[*defs.Def]bool)
	add := func(d *defs.Def) {
		if seen[d] {
			return
		}
		seen[d] = true
		for _, use := range d.Users() {
			name, ok := use.Node.(*ast.Name)
			if !ok {
				continue
			}
			c.defs[name] = append(c.defs[name], d)
		}
	}

	for _, d := range result.Chains {
		add(d)
	}
	for _, d := range result.Builtins {
		add(d)
	}

	ast.Walk(module,
		func(n ast.Node) bool {
			if name, ok := n.(*ast.Name); ok {
				if _, ok := c.defs[name]; !ok {
					c.defs[name] = nil
				}
			}
			return true
		},
		func(ast.Node) {},
	)

	return c
}

// Of returns the Defs reaching name, or nil if name has no entry (it was
// never visited by the analyzer that produced the chains this was built
// from).
func (c *Chains) Of(name *ast.Name) []*defs.Def {
	return c.defs[name]
}

// Len returns the number of Name nodes this inversion covers.
func (c *Chains) Len() int {
	return len(c.defs)
}
