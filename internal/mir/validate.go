package mir

import (
	"errors"
	"fmt"

	"facet/internal/types"
)

// Validate checks MIR module invariants.
// Returns error if any invariant is violated.
func Validate(m *Module, typesIn *types.Interner) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := ValidateFunc(f, typesIn); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks the structural invariants of one function body.
func ValidateFunc(f *Func, typesIn *types.Interner) error {
	if f == nil {
		return nil
	}

	var errs []error
	if err := validateBlocksTerminated(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateBlockTargets(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateLocalIDs(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateLocalTypes(f, typesIn); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// validateBlocksTerminated checks that every block ends with a terminator.
func validateBlocksTerminated(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind == TermNone {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
	}
	return errors.Join(errs...)
}

// validateBlockTargets checks that every terminator target is in range.
func validateBlockTargets(f *Func) error {
	var errs []error
	inRange := func(id BlockID) bool {
		return id >= 0 && int(id) < len(f.Blocks)
	}
	if !inRange(f.Entry) {
		errs = append(errs, fmt.Errorf("entry bb%d out of range", f.Entry))
	}
	for i := range f.Blocks {
		for _, succ := range f.Blocks[i].Term.Successors() {
			if !inRange(succ) {
				errs = append(errs, fmt.Errorf("bb%d: target bb%d out of range", i, succ))
			}
		}
	}
	return errors.Join(errs...)
}

// validateLocalIDs checks that every referenced local exists in the body's
// local table.
func validateLocalIDs(f *Func) error {
	var errs []error
	checkLocal := func(bb int, l LocalID) {
		if l < 0 || int(l) >= len(f.Locals) {
			errs = append(errs, fmt.Errorf("bb%d: local %d out of range", bb, l))
		}
	}
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		checkPlace := func(p *Place) {
			checkLocal(bi, p.Local)
			for _, pr := range p.Proj {
				if pr.Kind == ProjIndex {
					checkLocal(bi, pr.IndexLocal)
				}
			}
		}
		for ii := range bb.Instrs {
			in := &bb.Instrs[ii]
			switch in.Kind {
			case InstrStorageLive:
				checkLocal(bi, in.StorageLive.Local)
			case InstrStorageDead:
				checkLocal(bi, in.StorageDead.Local)
			}
			forEachPlaceInInstr(in, checkPlace)
		}
		forEachPlaceInTerm(&bb.Term, checkPlace)
	}
	return errors.Join(errs...)
}

// validateLocalTypes checks that every local carries a valid type.
func validateLocalTypes(f *Func, typesIn *types.Interner) error {
	if typesIn == nil {
		return nil
	}
	var errs []error
	for i := range f.Locals {
		if _, ok := typesIn.Lookup(f.Locals[i].Type); !ok {
			errs = append(errs, fmt.Errorf("local %d (%s): invalid type", i, f.Locals[i].Name))
		}
	}
	return errors.Join(errs...)
}
