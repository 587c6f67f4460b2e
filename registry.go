package bind

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

type arrayRegistration struct {
	uid string
	fn  ArrayListener
}

// Registry is the process-level entry point of the observation core. It maps
// owner uids to their context managers and keeps the cross-manager tables:
// the owner index of remove callbacks used for bulk teardown, and the array
// listener table, global because many owners may listen on the same array
// identifier while instrumentation is per list instance.
//
// A Registry has no package-level state; independent application instances
// each create their own, and so does every test.
type Registry struct {
	logger *slog.Logger

	managers map[string]*ContextManager

	// removers indexes, per owner uid and identifier, every remove callback
	// the owner obtained from Observe, on whichever manager.
	removers map[string]map[string][]RemoveFunc

	// arrays holds the array mutation listeners per absolute identifier, in
	// registration order, at most one per (identifier, uid) pair.
	arrays map[string][]arrayRegistration

	// ownerArrays tracks which identifiers each owner has array listeners
	// on, so disposal purges without scanning the whole table.
	ownerArrays map[string]mapset.Set[string]
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:      slog.Default(),
		managers:    make(map[string]*ContextManager),
		removers:    make(map[string]map[string][]RemoveFunc),
		arrays:      make(map[string][]arrayRegistration),
		ownerArrays: make(map[string]mapset.Set[string]),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetManager returns the context manager for an owner, creating it on first
// call. Creation is keyed by the owner's uid and idempotent.
func (r *Registry) GetManager(o *Owner) *ContextManager {
	if o == nil {
		return nil
	}
	m, ok := r.managers[o.UID()]
	if !ok {
		m = newContextManager(r, o.UID(), o.Context())
		r.managers[o.UID()] = m
	}
	return m
}

// GetContext reads a path from an owner's context without registering a
// listener.
func (r *Registry) GetContext(o *Owner, segments []string) any {
	m := r.GetManager(o)
	if m == nil {
		return nil
	}
	return m.GetContext(segments)
}

// Dispose tears an owner down: its own manager is disposed, every remove
// callback the owner ever obtained is invoked, including ones registered
// against other owners' managers, its array listeners are purged, and its
// context is sealed, to nil or, with persist, to a detached deep copy that
// stale references can keep reading without observing live mutation.
// Disposing twice is a no-op.
func (r *Registry) Dispose(o *Owner, persist bool) {
	if o == nil {
		return
	}
	uid := o.UID()
	if m, ok := r.managers[uid]; ok {
		m.Dispose()
		delete(r.managers, uid)
	}
	if index, ok := r.removers[uid]; ok {
		delete(r.removers, uid)
		for _, fns := range index {
			for _, fn := range fns {
				fn()
			}
		}
	}
	r.RemoveArrayListeners(uid)
	o.seal(persist)
}

// PushRemoveListener records a remove callback under (uid, identifier) so
// bulk disposal can find it.
func (r *Registry) PushRemoveListener(uid, identifier string, rm RemoveFunc) {
	if uid == "" || identifier == "" || rm == nil {
		return
	}
	index, ok := r.removers[uid]
	if !ok {
		index = make(map[string][]RemoveFunc)
		r.removers[uid] = index
	}
	index[identifier] = append(index[identifier], rm)
}

// RemoveIdentifier invokes and forgets every remove callback an owner holds
// for one identifier.
func (r *Registry) RemoveIdentifier(uid, identifier string) {
	index, ok := r.removers[uid]
	if !ok {
		return
	}
	fns := index[identifier]
	delete(index, identifier)
	if len(index) == 0 {
		delete(r.removers, uid)
	}
	for _, fn := range fns {
		fn()
	}
}

// RemoveArrayListeners drops every array listener registered by an owner,
// across all identifiers.
func (r *Registry) RemoveArrayListeners(uid string) {
	ids, ok := r.ownerArrays[uid]
	if !ok {
		return
	}
	delete(r.ownerArrays, uid)
	for identifier := range ids.Iter() {
		regs := r.arrays[identifier]
		for i, reg := range regs {
			if reg.uid == uid {
				regs = append(regs[:i], regs[i+1:]...)
				break
			}
		}
		if len(regs) == 0 {
			delete(r.arrays, identifier)
		} else {
			r.arrays[identifier] = regs
		}
	}
}

// setArrayListener upserts the (identifier, uid) registration, preserving
// the position of a replaced entry.
func (r *Registry) setArrayListener(identifier, uid string, fn ArrayListener) {
	regs := r.arrays[identifier]
	replaced := false
	for i, reg := range regs {
		if reg.uid == uid {
			regs[i].fn = fn
			replaced = true
			break
		}
	}
	if !replaced {
		regs = append(regs, arrayRegistration{uid: uid, fn: fn})
	}
	r.arrays[identifier] = regs

	ids, ok := r.ownerArrays[uid]
	if !ok {
		ids = mapset.NewSet[string]()
		r.ownerArrays[uid] = ids
	}
	ids.Add(identifier)
}

func (r *Registry) arrayListeners(identifier string) []arrayRegistration {
	regs := r.arrays[identifier]
	if len(regs) == 0 {
		return nil
	}
	return append([]arrayRegistration(nil), regs...)
}

func (r *Registry) hasArrayListeners(identifier string) bool {
	return len(r.arrays[identifier]) > 0
}
