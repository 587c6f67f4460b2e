package bind

import (
	"log/slog"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// ListenerFunc receives property change notifications.
type ListenerFunc func(newValue, oldValue any)

// RemoveFunc de-registers exactly the registration it was returned for.
// Calling it more than once is a no-op.
type RemoveFunc func()

// Registration couples a listener with the uid of the owner registering it.
// A single uid may hold any number of registrations, including several on the
// same identifier; each one is removable on its own.
type Registration struct {
	UID      string
	Listener ListenerFunc
}

type registration struct {
	uid string
	seq uint64
	fn  ListenerFunc
}

// ContextManager observes one root context graph. Listeners are keyed by
// absolute identifier (dot-joined path). A cascade index maps every proper
// prefix of an observed identifier to the identifiers extending it, so that
// replacing an intermediate reference re-notifies and re-hooks all observed
// descendants against the new subtree.
//
// A manager is bound to the uid of the owner it was created for, but owners
// other than its own may register listeners on it, which is how a shared
// context is observed by several controls.
type ContextManager struct {
	registry *Registry
	ownerUID string
	context  *Object
	logger   *slog.Logger

	listeners map[string][]registration
	cascade   map[string][]string
	cache     map[string]any

	// internal holds, per "<path>.length" identifier, the remove function of
	// the parent-path listener that keeps list instrumentation attached. It
	// is invoked when the last length listener goes away.
	internal map[string]RemoveFunc

	seq       uint64
	inArrayOp bool
	disposed  bool
}

func newContextManager(r *Registry, ownerUID string, ctx *Object) *ContextManager {
	return &ContextManager{
		registry:  r,
		ownerUID:  ownerUID,
		context:   ctx,
		logger:    r.logger,
		listeners: make(map[string][]registration),
		cascade:   make(map[string][]string),
		cache:     make(map[string]any),
		internal:  make(map[string]RemoveFunc),
	}
}

// OwnerUID returns the uid of the owner this manager was created for.
func (cm *ContextManager) OwnerUID() string {
	return cm.ownerUID
}

// Observe registers a listener under an absolute identifier and returns its
// remove function. An empty identifier or a disposed manager yields a no-op
// remove function. Observing a path whose parent is not a container logs a
// warning but still registers the listener: the path may become valid later
// through a cascade update, at which point the listener starts firing.
func (cm *ContextManager) Observe(identifier string, reg Registration) RemoveFunc {
	if identifier == "" || cm.disposed {
		return func() {}
	}
	segments := SplitPath(identifier)
	for _, seg := range segments {
		if seg == "" {
			cm.logger.Warn("malformed identifier",
				"identifier", identifier,
				"uid", reg.UID)
			break
		}
	}
	key := segments[len(segments)-1]

	var parent any = cm.context
	if len(segments) > 1 {
		parent = cm.GetContext(segments[:len(segments)-1])
	}

	if _, observed := cm.listeners[identifier]; !observed {
		// Hook the chain lazily; installChain stops wherever the graph does.
		cm.installChain(segments)

		switch p := parent.(type) {
		case *Object:
			if v, _ := p.Get(key); v != nil {
				cm.cache[identifier] = v
			}
		case *List:
			if key == "length" {
				cm.observeListLength(identifier, segments, reg.UID, p)
			}
			// Numeric leaves on a list resolve but are not hooked; index
			// assignment is outside the interception contract.
		default:
			if reg.Listener != nil {
				cm.logger.Warn("observing a property of a non-container parent",
					"identifier", identifier,
					"uid", reg.UID,
					"parent", spew.Sprintf("%#v", parent))
			}
		}
	}

	entry := registration{uid: reg.UID, seq: cm.nextSeq(), fn: reg.Listener}
	cm.listeners[identifier] = append(cm.listeners[identifier], entry)
	cm.indexCascade(identifier, segments)

	remove := func() { cm.removeRegistration(identifier, entry.seq) }
	cm.registry.PushRemoveListener(reg.UID, identifier, remove)
	return remove
}

// ObserveArray moves array instrumentation from oldArr to newArr for the
// given identifier and registers fn in the registry's array listener table.
// Re-observing with the same (identifier, uid) pair replaces the previous
// callback rather than duplicating it. A nil fn instruments without
// registering, which is how the length channel attaches.
func (cm *ContextManager) ObserveArray(uid string, fn ArrayListener, identifier string, newArr, oldArr *List) {
	if identifier == "" || cm.disposed {
		return
	}
	if oldArr != nil {
		uninstallArray(oldArr)
	}
	if newArr == nil {
		return
	}
	installArray(cm, newArr, identifier)
	if fn != nil {
		cm.registry.setArrayListener(identifier, uid, fn)
		// Replacing the reference at identifier, or at any ancestor, must
		// move the instrumentation to the incoming list. Hooking the path and
		// indexing the identifier makes the cell/cascade machinery do it.
		segments := SplitPath(identifier)
		cm.installChain(segments)
		cm.indexCascade(identifier, segments)
	}
}

// GetContext resolves a path against the root context, memoized per joined
// path through the value cache. Missing values are not cached.
func (cm *ContextManager) GetContext(segments []string) any {
	if cm.disposed {
		return nil
	}
	if len(segments) == 0 {
		return cm.context
	}
	key := JoinPath(segments)
	if v, ok := cm.cache[key]; ok {
		return v
	}
	v := Resolve(cm.context, segments)
	if v != nil {
		cm.cache[key] = v
	}
	return v
}

// Dispose drops the context reference and all bookkeeping. The registry-level
// tables referencing this manager's listeners are the Registry's to purge.
func (cm *ContextManager) Dispose() {
	if cm.disposed {
		return
	}
	cm.disposed = true
	cm.context = nil
	cm.listeners = make(map[string][]registration)
	cm.cascade = make(map[string][]string)
	cm.cache = make(map[string]any)
	cm.internal = make(map[string]RemoveFunc)
}

func (cm *ContextManager) nextSeq() uint64 {
	cm.seq++
	return cm.seq
}

// observeListLength wires a "<path>.length" identifier: the list itself is
// instrumented so length changes arrive through the array channel, and the
// parent path gets an internal listener that moves the instrumentation to a
// replacement list.
func (cm *ContextManager) observeListLength(identifier string, segments []string, uid string, list *List) {
	parentID := JoinPath(segments[:len(segments)-1])
	cm.internal[identifier] = cm.Observe(parentID, Registration{UID: uid, Listener: func(newValue, oldValue any) {
		newList, _ := newValue.(*List)
		oldList, _ := oldValue.(*List)
		cm.ObserveArray(uid, nil, parentID, newList, oldList)
	}})
	cm.ObserveArray(uid, nil, parentID, list, nil)
	cm.cache[identifier] = list.Len()
}

// installChain hooks every property along the path that sits on an Object,
// stopping where the graph ends or stops being objects. Installation is
// idempotent per (object, key).
func (cm *ContextManager) installChain(segments []string) {
	var cur any = cm.context
	for i, seg := range segments {
		// Cells only attach to objects. On a list, "length" goes through
		// the array channel and indexes are outside the contract, so the
		// walk simply stops there.
		obj, ok := cur.(*Object)
		if !ok {
			return
		}
		installCell(cm, obj, seg, JoinPath(segments[:i+1]))
		cur, _ = obj.Get(seg)
	}
}

// indexCascade records the identifier under each of its proper prefixes.
func (cm *ContextManager) indexCascade(identifier string, segments []string) {
	for i := 1; i < len(segments); i++ {
		prefix := JoinPath(segments[:i])
		deps := cm.cascade[prefix]
		found := false
		for _, d := range deps {
			if d == identifier {
				found = true
				break
			}
		}
		if !found {
			cm.cascade[prefix] = append(deps, identifier)
		}
	}
}

// removeRegistration removes the single registration created with seq. When
// the identifier's listener list empties it is deleted outright, along with
// its cached value and cascade entries: no dangling keys.
func (cm *ContextManager) removeRegistration(identifier string, seq uint64) {
	regs, ok := cm.listeners[identifier]
	if !ok {
		return
	}
	index := -1
	for i, r := range regs {
		if r.seq == seq {
			index = i
			break
		}
	}
	if index < 0 {
		return
	}
	regs = append(regs[:index], regs[index+1:]...)
	if len(regs) > 0 {
		cm.listeners[identifier] = regs
		return
	}
	delete(cm.listeners, identifier)
	delete(cm.cache, identifier)
	cm.dropCascade(identifier)

	if rm, ok := cm.internal[identifier]; ok {
		delete(cm.internal, identifier)
		rm()
	}

	// With no listeners and no observed descendants left, the leaf hook has
	// no consumer. Chain hooks above it stay: other identifiers may share
	// the prefix, and an unconsumed hook is inert.
	if len(cm.cascade[identifier]) == 0 {
		segments := SplitPath(identifier)
		var parent any = cm.context
		if len(segments) > 1 {
			parent = Resolve(cm.context, segments[:len(segments)-1])
		}
		if obj, ok := parent.(*Object); ok {
			uninstallCell(obj, segments[len(segments)-1])
		}
	}
}

func (cm *ContextManager) dropCascade(identifier string) {
	segments := SplitPath(identifier)
	for i := 1; i < len(segments); i++ {
		prefix := JoinPath(segments[:i])
		deps := cm.cascade[prefix]
		for j, d := range deps {
			if d == identifier {
				deps = append(deps[:j], deps[j+1:]...)
				break
			}
		}
		if len(deps) == 0 {
			delete(cm.cascade, prefix)
		} else {
			cm.cascade[prefix] = deps
		}
	}
}

// onCellChange is the hook target for property cells. Direct listeners for
// the identifier run first, then the cascade to observed descendants. When
// the identifier carries array listeners, instrumentation migrates to the
// new list before anyone is notified.
func (cm *ContextManager) onCellChange(identifier string, newValue, oldValue any) {
	if cm.disposed {
		return
	}
	if cm.registry.hasArrayListeners(identifier) {
		oldList, _ := oldValue.(*List)
		newList, _ := newValue.(*List)
		uninstallArray(oldList)
		installArray(cm, newList, identifier)
	}
	cm.invalidateBelow(identifier)
	cm.execute(identifier, newValue, oldValue)
	cm.notifyChildProperties(identifier, newValue, oldValue)
}

// invalidateBelow evicts every memoized value strictly under identifier.
// Replacing a reference makes the whole old subtree stale; observed
// descendants are re-cached by the cascade, unobserved prefixes on the next
// GetContext.
func (cm *ContextManager) invalidateBelow(identifier string) {
	prefix := identifier + "."
	for key := range cm.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cm.cache, key)
		}
	}
}

// execute updates the value cache and dispatches to the identifier's
// listeners in registration order. Dispatch iterates a snapshot of the list:
// listeners registered during a pass fire from the next mutation on. A
// panicking listener is logged and does not stop the pass, nor does it reach
// the code that performed the mutation.
func (cm *ContextManager) execute(identifier string, newValue, oldValue any) {
	if newValue == nil {
		delete(cm.cache, identifier)
	} else {
		cm.cache[identifier] = newValue
	}
	regs := cm.listeners[identifier]
	if len(regs) == 0 {
		return
	}
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	for _, r := range snapshot {
		cm.invoke(r, identifier, newValue, oldValue)
	}
}

func (cm *ContextManager) invoke(r registration, identifier string, newValue, oldValue any) {
	defer func() {
		if rec := recover(); rec != nil {
			cm.logger.Warn("context listener failed during dispatch",
				"identifier", identifier,
				"uid", r.uid,
				"recovered", rec)
		}
	}()
	if r.fn != nil {
		r.fn(newValue, oldValue)
	}
}

// notifyChildProperties is the cascade: after the value at identifier was
// replaced, every observed identifier extending it is resolved against the
// new and old subtrees, re-hooked on the new one where resolvable, and
// notified with its own child values. A nil new value still notifies every
// descendant once, with nil, so bindings can clear.
func (cm *ContextManager) notifyChildProperties(identifier string, newValue, oldValue any) {
	deps := cm.cascade[identifier]
	if len(deps) == 0 {
		return
	}
	snapshot := append([]string(nil), deps...)
	prefix := identifier + "."
	for _, full := range snapshot {
		if len(full) <= len(prefix) || full[:len(prefix)] != prefix {
			continue
		}
		suffix := SplitPath(full[len(prefix):])
		newChild := Resolve(newValue, suffix)
		oldChild := Resolve(oldValue, suffix)
		if oldList, ok := oldChild.(*List); ok && cm.registry.hasArrayListeners(full) {
			uninstallArray(oldList)
		}
		if newValue != nil {
			cm.reinstall(identifier, full, suffix, newValue)
		}
		cm.execute(full, newChild, oldChild)
	}
}

// reinstall re-hooks the suffix path on a freshly swapped-in subtree. A
// formerly primitive intermediate that became an object is promoted here,
// since cells now attach where they previously could not.
func (cm *ContextManager) reinstall(base, full string, suffix []string, parent any) {
	cur := parent
	id := base
	for _, seg := range suffix {
		listID := id
		id = id + "." + seg
		switch t := cur.(type) {
		case *Object:
			installCell(cm, t, seg, id)
			cur, _ = t.Get(seg)
		case *List:
			if seg == "length" {
				installArray(cm, t, listID)
				return
			}
			cur = Resolve(t, []string{seg})
		default:
			return
		}
	}
	if lst, ok := cur.(*List); ok && cm.registry.hasArrayListeners(full) {
		installArray(cm, lst, full)
	}
}

// dispatchArrayMutation fans one array event out to every owner registered
// on the identifier, in registration order, isolating panics per listener.
func (cm *ContextManager) dispatchArrayMutation(identifier string, evt ArrayMutation) {
	for _, r := range cm.registry.arrayListeners(identifier) {
		cm.invokeArray(r, identifier, evt)
	}
}

func (cm *ContextManager) invokeArray(r arrayRegistration, identifier string, evt ArrayMutation) {
	defer func() {
		if rec := recover(); rec != nil {
			cm.logger.Warn("array listener failed during dispatch",
				"identifier", identifier,
				"uid", r.uid,
				"method", evt.Method,
				"recovered", rec)
		}
	}()
	r.fn(evt)
}
