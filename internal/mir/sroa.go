package mir

import (
	"facet/internal/types"
)

// SROAMinOptLevel is the optimization level at which scalar replacement of
// aggregates becomes active.
const SROAMinOptLevel = 3

// SROAEnabled reports whether the pass should run at the given level. The
// surrounding pipeline owns the decision; the pass only publishes its
// threshold.
func SROAEnabled(optLevel int) bool {
	return optLevel >= SROAMinOptLevel
}

// ScalarReplaceAggregates decomposes product-typed locals into independent
// per-field scalar locals wherever that is observably safe. The body is
// rewritten in place; when nothing can be decomposed it is left untouched.
//
// The pass runs three stages over one function body: escape analysis finds
// the locals whose layout must stay intact, the planner assigns a fresh
// local to every safely accessed (local, field) pair, and the rewriter
// applies the plan to instructions, terminators and debug info.
func ScalarReplaceAggregates(f *Func, typesIn *types.Interner) {
	if f == nil || len(f.Blocks) == 0 {
		return
	}
	escaping := escapingLocals(f, typesIn)
	plan := computeFlattening(f, typesIn, escaping)
	if plan.empty() {
		return
	}
	replaceFlattenedLocals(f, typesIn, plan)
}

// localSet is a dense set of LocalIDs sized to the body's local table at
// creation. Locals appended later are never members.
type localSet struct {
	bits []bool
}

func newLocalSet(n int) *localSet {
	return &localSet{bits: make([]bool, n)}
}

func (s *localSet) insert(l LocalID) {
	if l >= 0 && int(l) < len(s.bits) {
		s.bits[l] = true
	}
}

func (s *localSet) remove(l LocalID) {
	if l >= 0 && int(l) < len(s.bits) {
		s.bits[l] = false
	}
}

func (s *localSet) contains(l LocalID) bool {
	return l >= 0 && int(l) < len(s.bits) && s.bits[l]
}

func (s *localSet) empty() bool {
	for _, b := range s.bits {
		if b {
			return false
		}
	}
	return true
}
