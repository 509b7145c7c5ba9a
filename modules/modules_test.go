package modules

import (
	"testing"

	"github.com/sansecio/yarax/types"
)

type stubMessage struct{}

func (stubMessage) FullName() string          { return "Stub" }
func (stubMessage) RequiredFieldsSet() bool   { return true }
func (stubMessage) ToStruct(bool) *types.Struct { return types.NewStruct("Stub") }

func TestRegisterAndLookup(t *testing.T) {
	name := "test_register_lookup"
	Register(Module{
		Name:     name,
		RootType: "Stub",
		Main:     func(ctx ScanContext) (Message, error) { return stubMessage{}, nil },
	})

	m, ok := Lookup(name)
	if !ok {
		t.Fatalf("Lookup(%q) not found after Register", name)
	}
	if m.RootType != "Stub" {
		t.Errorf("RootType = %q, want Stub", m.RootType)
	}
}

func TestLookupUnregistered(t *testing.T) {
	if _, ok := Lookup("no_such_module_xyz"); ok {
		t.Error("Lookup found a module that was never registered")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	name := "test_register_duplicate"
	Register(Module{Name: name, RootType: "Stub"})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register(Module{Name: name, RootType: "Stub"})
}
