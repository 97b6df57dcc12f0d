package vm

// ---------------------------------------------------------------------------
// Module trie: prefix tree keyed on label sequences
// ---------------------------------------------------------------------------

// moduleTrie maps Address label sequences to loaded modules. Lookups
// and inserts walk the sequence, so both exact resolution and
// remove-by-prefix (deactivation) are cheap.
type moduleTrie struct {
	value    *LoadedModule
	children map[Label]*moduleTrie
}

func newModuleTrie() *moduleTrie {
	return &moduleTrie{children: map[Label]*moduleTrie{}}
}

// get resolves an exact address.
func (t *moduleTrie) get(addr Address) (*LoadedModule, bool) {
	node := t
	for _, l := range addr.Labels() {
		next, ok := node.children[l]
		if !ok {
			return nil, false
		}
		node = next
	}
	if node.value == nil {
		return nil, false
	}
	return node.value, true
}

// put inserts a module at an exact address, reporting whether the
// slot was previously empty.
func (t *moduleTrie) put(addr Address, lm *LoadedModule) bool {
	node := t
	for _, l := range addr.Labels() {
		next, ok := node.children[l]
		if !ok {
			next = newModuleTrie()
			node.children[l] = next
		}
		node = next
	}
	if node.value != nil {
		return false
	}
	node.value = lm
	return true
}

// removePrefix deletes the entire subtree under addr, returning the
// number of modules removed.
func (t *moduleTrie) removePrefix(addr Address) int {
	labels := addr.Labels()
	node := t
	for _, l := range labels[:len(labels)-1] {
		next, ok := node.children[l]
		if !ok {
			return 0
		}
		node = next
	}
	last := labels[len(labels)-1]
	sub, ok := node.children[last]
	if !ok {
		return 0
	}
	delete(node.children, last)
	return sub.count()
}

func (t *moduleTrie) count() int {
	n := 0
	if t.value != nil {
		n = 1
	}
	for _, c := range t.children {
		n += c.count()
	}
	return n
}

// walk visits every loaded module in unspecified order.
func (t *moduleTrie) walk(prefix []Label, fn func(addr Address, lm *LoadedModule)) {
	if t.value != nil {
		labels := make([]Label, len(prefix))
		copy(labels, prefix)
		fn(Address{labels: labels}, t.value)
	}
	for l, c := range t.children {
		c.walk(append(prefix, l), fn)
	}
}
