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

package ast

func (*TypeVar) typeParamNode()      {}
func (*TypeVarTuple) typeParamNode() {}
func (*ParamSpec) typeParamNode()    {}

// TypeVar is a PEP-695 `[T]` or `[T: bound]` type-parameter declaration.
// Its Bound, when present, is always resolved as a deferred annotation.
type TypeVar struct {
	pos
	Name  string
	Bound Expr // nil if unbounded
}

// TypeVarTuple is a PEP-695 `[*Ts]` type-parameter declaration.
type TypeVarTuple struct {
	pos
	Name string
}

// ParamSpec is a PEP-695 `[**P]` type-parameter declaration.
type ParamSpec struct {
	pos
	Name string
}
