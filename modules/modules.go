// Package modules is the built-in module driver registry: it owns the
// "a module's main produces a structured message, which becomes a typed
// struct in the rule program's root structure" contract. Every built-in
// module lives in its own subpackage and registers itself at init().
package modules

import "github.com/sansecio/yarax/types"

// ScanContext is the subset of scanner.Context a module's Main needs. It is
// defined here, rather than imported from the scanner package, to avoid a
// scanner<->modules import cycle: scanner.Context satisfies this interface
// without either package importing the other.
type ScanContext interface {
	// Data returns the buffer currently being scanned.
	Data() []byte
}

// Message is the structured output a module's Main produces. ToStruct
// converts it into the internal typed-structure representation the rule
// program's root structure embeds the module under.
type Message interface {
	// FullName identifies the message type, e.g. "Hash" or "Math".
	FullName() string
	// RequiredFieldsSet reports whether every field the module's protocol
	// requires was actually populated by Main.
	RequiredFieldsSet() bool
	// ToStruct converts the message into a types.Struct. generateEnumFields
	// controls whether symbolic enum names are added alongside numeric
	// values (unused by the built-in modules, which have no enums, but part
	// of the contract every Message must implement).
	ToStruct(generateEnumFields bool) *types.Struct
}

// Module is one entry in the built-in module registry.
type Module struct {
	// Name is the import name rules use, e.g. "hash".
	Name string
	// RootType is the struct name the module's output is mounted under.
	RootType string
	// Main produces this module's output for one scan. A nil Main models a
	// module that declares itself but has no run-time implementation;
	// invoking it is an internal contract violation (see runModuleDriver in
	// package scanner).
	Main func(ctx ScanContext) (Message, error)
}

// Registry is the built-in module registry, populated by Register at
// init() time by each modules/* subpackage that imports this package.
var Registry = map[string]Module{}

// Register adds a module to the registry. Panics on a duplicate name since
// that can only happen from a programming error in this repository, not
// from user input.
func Register(m Module) {
	if _, exists := Registry[m.Name]; exists {
		panic("modules: duplicate registration for " + m.Name)
	}
	Registry[m.Name] = m
}

// Lookup returns the registered module for name. ok is false when name was
// never registered, the spec's "imported module with no built-in backing"
// internal contract violation.
func Lookup(name string) (Module, bool) {
	m, ok := Registry[name]
	return m, ok
}
