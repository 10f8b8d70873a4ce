// Package store implements the execution context's two stores (§3, §4):
// a concurrent ScalarStore keyed by namespace with path-based
// insertion/retrieval and an embedded template renderer, and a flat
// TabularStore keyed by dotted path. Both wrap a sync.RWMutex per the
// shared-resource policy in §5: reads take the read lock, inserts and
// removes take the write lock, and no operation holds both stores'
// locks simultaneously.
package store

import (
	"fmt"
	"sync"

	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/storepath"
)

// ScalarStore is a map from namespace (the path's first segment) to a
// root scalar.Value, always an Object when non-empty. It also owns the
// Renderer used to evaluate templates against its own contents.
type ScalarStore struct {
	mu         sync.RWMutex
	namespaces map[string]*scalar.Object
	raw        map[string]scalar.Value
	renderer   Renderer
}

// NewScalarStore creates an empty store bound to renderer. If renderer
// is nil, Render returns an error on first use rather than panicking.
func NewScalarStore(renderer Renderer) *ScalarStore {
	return &ScalarStore{
		namespaces: make(map[string]*scalar.Object),
		raw:        make(map[string]scalar.Value),
		renderer:   renderer,
	}
}

// Insert ensures the intermediate objects along path's namespace exist
// and sets the leaf value. path must have at least two segments, a
// namespace and a leaf ([ns, s1, ..., sk, leaf] with k >= 0); a
// one-segment path is rejected with an error and never overwrites the
// namespace's root object.
func (s *ScalarStore) Insert(path storepath.Path, v scalar.Value) error {
	segs := path.Segments()
	if len(segs) < 1 {
		return fmt.Errorf("store: path must have at least one segment")
	}
	ns := segs[0]
	fields := segs[1:]

	s.mu.Lock()
	defer s.mu.Unlock()

	root, ok := s.namespaces[ns]
	if !ok {
		root = scalar.NewObject()
		s.namespaces[ns] = root
	}

	if len(fields) == 0 {
		// Path is just the namespace: spec's k=0 case with no leaf
		// name is not directly addressable as a single scalar without
		// a field name; treat the whole path minus namespace as empty
		// is invalid here since Insert always sets a *leaf*. Callers
		// always supply at least [ns, leaf].
		return fmt.Errorf("store: path %q has no field segment after the namespace", path.String())
	}

	setNested(root, fields, v)
	return nil
}

// setNested walks/creates intermediate Objects for fields[:len-1] and
// sets fields[len-1] to v.
func setNested(root *scalar.Object, fields []string, v scalar.Value) {
	cur := root
	for _, f := range fields[:len(fields)-1] {
		existing, ok := cur.Get(f)
		var childObj *scalar.Object
		if ok {
			childObj, ok = existing.AsObject()
		}
		if !ok {
			childObj = scalar.NewObject()
			cur.Set(f, scalar.ObjectValue(childObj))
		}
		cur = childObj
	}
	cur.Set(fields[len(fields)-1], v)
}

// Get walks path and returns the value, or false if any segment along
// the way is missing.
func (s *ScalarStore) Get(path storepath.Path) (scalar.Value, bool) {
	segs := path.Segments()
	if len(segs) == 0 {
		return scalar.Null(), false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	root, ok := s.namespaces[segs[0]]
	if !ok {
		return scalar.Null(), false
	}
	if len(segs) == 1 {
		return scalar.ObjectValue(root), true
	}

	cur := scalar.ObjectValue(root)
	for _, f := range segs[1:] {
		obj, ok := cur.AsObject()
		if !ok {
			return scalar.Null(), false
		}
		v, ok := obj.Get(f)
		if !ok {
			return scalar.Null(), false
		}
		cur = v
	}
	return cur, true
}

// Remove deletes a namespace entirely.
func (s *ScalarStore) Remove(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
}

// RawInsert places v directly under a single top-level key, used for
// iteration variables whose name is a simple identifier rather than a
// namespace-qualified path (§3, §4.5).
func (s *ScalarStore) RawInsert(key string, v scalar.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[key] = v
}

// RawRemove deletes a top-level raw key.
func (s *ScalarStore) RawRemove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.raw, key)
}

// RawGet returns a top-level raw key's value.
func (s *ScalarStore) RawGet(key string) (scalar.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.raw[key]
	return v, ok
}

// PushScope installs vars as top-level raw keys and returns a function
// that restores whatever was there before (or removes the key if it
// was previously absent). This is the scoped alternative to raw
// insert/remove described in SPEC_FULL.md §4.12, grounded in the
// teacher's ForEachStep.buildChildContext copy-on-iterate pattern; the
// pipeline driver uses this instead of raw Insert/Remove pairs so a
// panicking or early-returning iteration can never leave a stale
// iteration variable behind one level below where it was pushed.
func (s *ScalarStore) PushScope(vars map[string]scalar.Value) func() {
	s.mu.Lock()
	prev := make(map[string]scalar.Value, len(vars))
	hadPrev := make(map[string]bool, len(vars))
	for k, v := range vars {
		if old, ok := s.raw[k]; ok {
			prev[k] = old
			hadPrev[k] = true
		}
		s.raw[k] = v
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for k := range vars {
			if hadPrev[k] {
				s.raw[k] = prev[k]
			} else {
				delete(s.raw, k)
			}
		}
	}
}

// Snapshot returns a plain map[string]any mirroring the store's
// top-level contents (raw keys plus every namespace's root object),
// suitable as a template renderer's variable context. Raw keys take
// precedence over a namespace of the same name, which cannot happen
// in practice since namespace names are disjoint from the reserved
// iteration-variable names {item, index} (§3 invariants).
func (s *ScalarStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.namespaces)+len(s.raw))
	for ns, obj := range s.namespaces {
		out[ns] = obj.Native()
	}
	for k, v := range s.raw {
		out[k] = v.Native()
	}
	return out
}

// Render evaluates an inline template string against the store's
// current contents using the bound Renderer.
func (s *ScalarStore) Render(tmplStr string) (string, error) {
	if s.renderer == nil {
		return "", fmt.Errorf("store: no renderer configured")
	}
	return s.renderer.RenderInline(tmplStr, s.Snapshot())
}

// RendererImpl returns the bound template renderer, e.g. for syntax
// checking during validation.
func (s *ScalarStore) RendererImpl() Renderer {
	return s.renderer
}
