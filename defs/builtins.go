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

package defs

// PythonBuiltins is the table of builtin identifiers the analyzer seeds
// every module scope with, so a name lookup that bottoms out without a
// user-written definition still resolves. An interpreter would take this
// from its live `builtins.__dict__`; since this package analyzes a tree,
// not a running interpreter, it ships a static table instead. It is
// illustrative, not exhaustive: matching one interpreter version's builtin
// set exactly is a non-goal.
var PythonBuiltins = []string{
	"__name__", "__file__", "__doc__", "__package__", "__spec__", "__loader__",
	"__builtins__", "__debug__", "__build_class__", "__import__",
	"True", "False", "None", "NotImplemented", "Ellipsis",
	"abs", "aiter", "anext", "all", "any", "ascii", "bin", "bool", "breakpoint",
	"bytearray", "bytes", "callable", "chr", "classmethod", "compile", "complex",
	"delattr", "dict", "dir", "divmod", "enumerate", "eval", "exec", "filter",
	"float", "format", "frozenset", "getattr", "globals", "hasattr", "hash",
	"help", "hex", "id", "input", "int", "isinstance", "issubclass", "iter",
	"len", "list", "locals", "map", "max", "memoryview", "min", "next",
	"object", "oct", "open", "ord", "pow", "print", "property", "range",
	"repr", "reversed", "round", "set", "setattr", "slice", "sorted",
	"staticmethod", "str", "sum", "super", "tuple", "type", "vars", "zip",
	"BaseException", "BaseExceptionGroup", "Exception", "ArithmeticError",
	"AssertionError", "AttributeError", "BlockingIOError", "BrokenPipeError",
	"BufferError", "BytesWarning", "ChildProcessError", "ConnectionAbortedError",
	"ConnectionError", "ConnectionRefusedError", "ConnectionResetError",
	"DeprecationWarning", "EOFError", "Ellipsis", "EncodingWarning",
	"EnvironmentError", "ExceptionGroup", "FileExistsError",
	"FileNotFoundError", "FloatingPointError", "FutureWarning",
	"GeneratorExit", "IOError", "ImportError", "ImportWarning",
	"IndentationError", "IndexError", "InterruptedError",
	"IsADirectoryError", "KeyError", "KeyboardInterrupt", "LookupError",
	"MemoryError", "ModuleNotFoundError", "NameError",
	"NotADirectoryError", "NotImplementedError", "OSError",
	"OverflowError", "PendingDeprecationWarning", "PermissionError",
	"ProcessLookupError", "RecursionError", "ReferenceError",
	"ResourceWarning", "RuntimeError", "RuntimeWarning", "StopAsyncIteration",
	"StopIteration", "SyntaxError", "SyntaxWarning", "SystemError",
	"SystemExit", "TabError", "TimeoutError", "TypeError",
	"UnboundLocalError", "UnicodeDecodeError", "UnicodeEncodeError",
	"UnicodeError", "UnicodeTranslateError", "UnicodeWarning", "UserWarning",
	"ValueError", "Warning", "ZeroDivisionError",
}

// builtinSet is PythonBuiltins as a lookup set, computed once.
var builtinSet = func() map[string]bool {
	m := make(map[string]bool, len(PythonBuiltins))
	for _, n := range PythonBuiltins {
		m[n] = true
	}
	return m
}()

// IsBuiltinName reports whether name is in the builtin table.
func IsBuiltinName(name string) bool { return builtinSet[name] }

// NewBuiltinTable returns a fresh name -> Def mapping, one Def per entry in
// PythonBuiltins. Each analyzer instance gets its own copy, so mutating
// one instance's builtin Defs cannot leak into another's.
func NewBuiltinTable() map[string]*Def {
	m := make(map[string]*Def, len(PythonBuiltins))
	for _, name := range PythonBuiltins {
		m[name] = NewBuiltin(name)
	}
	return m
}
