package mir

import (
	"fmt"
	"sort"
)

// Location identifies one instruction slot inside a function body.
type Location struct {
	Block BlockID
	Index int
}

// Patch stages instruction insertions against stable locations while the
// body is still being traversed, then applies them in one step. Mutating the
// instruction stream mid-traversal would invalidate the positions of edits
// already staged.
type Patch struct {
	staged []stagedInstr
}

type stagedInstr struct {
	loc   Location
	seq   int // preserves relative order of edits staged at the same location
	instr Instr
}

// NewPatch returns an empty edit batch for the function.
func NewPatch(f *Func) *Patch {
	_ = f
	return &Patch{}
}

// AddInstr stages an instruction to be inserted before the given location.
// Instructions staged at the same location keep their staging order.
func (p *Patch) AddInstr(loc Location, in Instr) {
	p.staged = append(p.staged, stagedInstr{loc: loc, seq: len(p.staged), instr: in})
}

// Len reports how many edits are staged.
func (p *Patch) Len() int {
	return len(p.staged)
}

// Apply inserts all staged instructions into the body. Staged locations must
// refer to positions in the unmodified body.
func (p *Patch) Apply(f *Func) {
	if len(p.staged) == 0 {
		return
	}
	sort.SliceStable(p.staged, func(i, j int) bool {
		a, b := p.staged[i], p.staged[j]
		if a.loc.Block != b.loc.Block {
			return a.loc.Block < b.loc.Block
		}
		if a.loc.Index != b.loc.Index {
			return a.loc.Index < b.loc.Index
		}
		return a.seq < b.seq
	})

	start := 0
	for start < len(p.staged) {
		end := start
		for end < len(p.staged) && p.staged[end].loc.Block == p.staged[start].loc.Block {
			end++
		}
		p.applyToBlock(f, p.staged[start].loc.Block, p.staged[start:end])
		start = end
	}
	p.staged = p.staged[:0]
}

func (p *Patch) applyToBlock(f *Func, id BlockID, staged []stagedInstr) {
	if id < 0 || int(id) >= len(f.Blocks) {
		panic(fmt.Sprintf("mir: patch target bb%d out of range", id))
	}
	bb := &f.Blocks[id]
	out := make([]Instr, 0, len(bb.Instrs)+len(staged))
	next := 0
	for i := range bb.Instrs {
		for next < len(staged) && staged[next].loc.Index <= i {
			out = append(out, staged[next].instr)
			next++
		}
		out = append(out, bb.Instrs[i])
	}
	for next < len(staged) {
		out = append(out, staged[next].instr)
		next++
	}
	bb.Instrs = out
}
