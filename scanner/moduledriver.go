package scanner

import "github.com/sansecio/yarax/modules"

// runModuleDriver implements spec.md §4.D: for every module name imported
// by the rule set, look it up in the built-in registry, run its Main if it
// has one, validate the returned message against its declared root type,
// and mount it onto the context's root structure and module_outputs table.
//
// Ordering follows the rule set's import declaration order, and the rule
// program may assume every imported module's structure is present on the
// root before main is invoked (spec.md §4.D, final paragraph) — so this
// runs in full before the VM entry point for any rule.
func (c *Context) runModuleDriver(imports []string) {
	for _, name := range imports {
		mod, ok := modules.Lookup(name)
		if !ok {
			panicContractViolation("scanner: rule set imports unregistered module %q", name)
		}
		if mod.Main == nil {
			// Module declares no main: its data is expected to arrive via an
			// out-of-band injector that is not implemented in this baseline
			// (spec.md §9 Open Question). Silently leaving the root
			// structure without this field would violate the "all module
			// structures are present before main is invoked" contract, so
			// it is treated as unsupported and this is fatal.
			panicContractViolation("scanner: module %q has no main and no injected data", name)
		}

		msg, err := mod.Main(c)
		if err != nil {
			panicContractViolation("scanner: module %q main failed: %v", name, err)
		}
		if msg.FullName() != mod.RootType {
			panicContractViolation("scanner: module %q main returned %q, want %q", name, msg.FullName(), mod.RootType)
		}
		if !msg.RequiredFieldsSet() {
			panicContractViolation("scanner: module %q main left required fields unset", name)
		}

		c.moduleOutputs[msg.FullName()] = msg
		c.root.AddField(mod.Name, msg.ToStruct(true))
	}
}
