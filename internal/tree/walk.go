package tree

// walk visits n and every descendant in pre-order, depth-first,
// following each container's insertion order.
func walk(n *Node, path []string, visit func(path []string, n *Node)) {
	visit(path, n)
	if n.kind != KindContainer {
		return
	}
	for _, name := range n.Children() {
		child := n.Child(name)
		if child == nil {
			continue
		}
		walk(child, append(append([]string(nil), path...), name), visit)
	}
}

// Walk visits every node of the tree in pre-order under the structure
// read lock, so a traversal can never race a topology rebind — the
// traversal a publication layer needs for deterministic output. visit
// must not mutate the tree's shape.
func (t *Tree) Walk(visit func(path []string, n *Node)) {
	t.structMu.RLock()
	defer t.structMu.RUnlock()
	walk(t.root, nil, visit)
}
