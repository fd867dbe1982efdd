package mir

// SimplifyCFG performs control flow graph simplification on a function.
// Transformations:
// 1. Remove trivial goto blocks (0 instructions + goto terminator)
// 2. Collapse goto chains
// 3. Remove unreachable blocks
// 4. Renumber blocks deterministically
func SimplifyCFG(f *Func) {
	if f == nil || len(f.Blocks) == 0 {
		return
	}

	redirects := buildRedirectMap(f)
	applyRedirects(f, redirects)
	reachable := computeReachability(f)
	compactBlocks(f, reachable)
}

// buildRedirectMap finds all trivial goto blocks and builds a mapping
// from their IDs to their final targets (following chains).
func buildRedirectMap(f *Func) map[BlockID]BlockID {
	redirects := make(map[BlockID]BlockID)

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if len(bb.Instrs) != 0 || bb.Term.Kind != TermGoto {
			continue
		}
		target := bb.Term.Goto.Target
		// Follow the chain to its final target, stopping on cycles.
		visited := make(map[BlockID]bool)
		for !visited[target] {
			visited[target] = true

			if next, ok := redirects[target]; ok {
				target = next
				continue
			}
			if isTrivialGotoBlock(f, target) {
				target = f.Blocks[target].Term.Goto.Target
				continue
			}
			break
		}
		redirects[bb.ID] = target
	}
	return redirects
}

// isTrivialGotoBlock checks if a block is a trivial goto block
// (0 instructions and a goto terminator).
func isTrivialGotoBlock(f *Func, id BlockID) bool {
	if id < 0 || int(id) >= len(f.Blocks) {
		return false
	}
	bb := &f.Blocks[id]
	return len(bb.Instrs) == 0 && bb.Term.Kind == TermGoto
}

// applyRedirects updates all terminators to use the redirected targets.
func applyRedirects(f *Func, redirects map[BlockID]BlockID) {
	if len(redirects) == 0 {
		return
	}

	redirect := func(id BlockID) BlockID {
		if newID, ok := redirects[id]; ok {
			return newID
		}
		return id
	}

	for i := range f.Blocks {
		retargetTerm(&f.Blocks[i].Term, redirect)
	}
	f.Entry = redirect(f.Entry)
}

func retargetTerm(term *Terminator, redirect func(BlockID) BlockID) {
	switch term.Kind {
	case TermGoto:
		term.Goto.Target = redirect(term.Goto.Target)
	case TermIf:
		term.If.Then = redirect(term.If.Then)
		term.If.Else = redirect(term.If.Else)
	case TermSwitchInt:
		if len(term.SwitchInt.Cases) > 0 {
			term.SwitchInt.Cases = append([]SwitchIntCase(nil), term.SwitchInt.Cases...)
		}
		for j := range term.SwitchInt.Cases {
			term.SwitchInt.Cases[j].Target = redirect(term.SwitchInt.Cases[j].Target)
		}
		term.SwitchInt.Default = redirect(term.SwitchInt.Default)
	}
}

// computeReachability performs a DFS from the entry block to find
// all reachable blocks.
func computeReachability(f *Func) []bool {
	reachable := make([]bool, len(f.Blocks))

	var visit func(id BlockID)
	visit = func(id BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || reachable[id] {
			return
		}
		reachable[id] = true
		for _, succ := range f.Blocks[id].Term.Successors() {
			visit(succ)
		}
	}

	visit(f.Entry)
	return reachable
}

// compactBlocks removes unreachable blocks and renumbers the remaining ones.
func compactBlocks(f *Func, reachable []bool) {
	count := 0
	for _, r := range reachable {
		if r {
			count++
		}
	}

	if count == len(f.Blocks) {
		for i := range f.Blocks {
			f.Blocks[i].ID = BlockID(i) //nolint:gosec // G115: bounded by existing block count
		}
		return
	}

	oldToNew := make(map[BlockID]BlockID)
	newBlocks := make([]Block, 0, count)

	for i, keep := range reachable {
		if keep {
			//nolint:gosec // G115: bounded by existing block count
			oldToNew[BlockID(i)] = BlockID(len(newBlocks))
			newBlocks = append(newBlocks, f.Blocks[i])
		}
	}

	remap := func(id BlockID) BlockID {
		if newID, ok := oldToNew[id]; ok {
			return newID
		}
		return id // should not happen if reachability is correct
	}

	for i := range newBlocks {
		newBlocks[i].ID = BlockID(i) //nolint:gosec // G115: bounded by newBlocks length
		retargetTerm(&newBlocks[i].Term, remap)
	}

	f.Blocks = newBlocks
	f.Entry = remap(f.Entry)
}
