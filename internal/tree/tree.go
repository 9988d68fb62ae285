package tree

import (
	"sync"

	"github.com/ipmi-atca/shelfmon/common"
)

// Tree is the root of the Sensor Tree: one writer (the poll engine)
// mutates it per cycle, any number of readers call the Query Interface
// concurrently. structMu guards the shape of the tree (which containers
// exist and what they hold) — it is held only while rebinding topology,
// never while reading or writing a leaf's value, so readers never block
// on a slow sensor read.
type Tree struct {
	structMu sync.RWMutex
	root     *Node

	health health
}

// New returns an empty tree rooted at an empty container.
func New() *Tree {
	t := &Tree{root: NewContainer()}
	t.health.init()
	return t
}

// WithStructureLock runs fn while holding the exclusive structure lock.
// The poll engine uses this to attach the subtrees built at startup and,
// during Static mode's rebind, to add missing FRU field leaves; it is
// never needed for a plain value update or for binding a sensorRef.
func (t *Tree) WithStructureLock(fn func(root *Node)) {
	t.structMu.Lock()
	defer t.structMu.Unlock()
	fn(t.root)
}

func (t *Tree) resolve(path []string) (*Node, error) {
	t.structMu.RLock()
	defer t.structMu.RUnlock()

	n := t.root
	for _, key := range path {
		n = n.Child(key)
		if n == nil {
			return nil, common.ErrPathNotFound
		}
	}
	return n, nil
}

// GetSubtree resolves path to a container node. Repeated calls against
// an unchanged tree return a node with equal contents, since no write
// happens between resolution and the caller reading it here.
func (t *Tree) GetSubtree(path []string) (*Node, error) {
	n, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetValue resolves path to a leaf and returns its value. Float values
// are rounded to two decimal places; other kinds are returned unchanged.
func (t *Tree) GetValue(path []string) (common.Value, error) {
	n, err := t.resolve(path)
	if err != nil {
		return common.Value{}, err
	}
	return n.Value().Rounded(), nil
}

// SetCallback resolves path to a leaf and attaches fn, invoked with the
// latest value after each successful update.
func (t *Tree) SetCallback(path []string, fn func(common.Value)) error {
	n, err := t.resolve(path)
	if err != nil {
		return err
	}
	n.SetCallback(fn)
	return nil
}
