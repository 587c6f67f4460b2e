package bind

import "sort"

// ArrayMutation describes one intercepted mutating operation on a List.
type ArrayMutation struct {
	// Method is the operation name: "push", "pop", "reverse", "shift",
	// "sort", "splice" or "unshift".
	Method string

	// Arguments are the arguments the operation was called with.
	Arguments []any

	// ReturnValue is what the operation returned: the new length for
	// push/unshift, the removed element for pop/shift, the removed elements
	// for splice, the list itself for sort/reverse.
	ReturnValue any

	// OldItems is a shallow snapshot of the list taken before the operation.
	OldItems []any

	// List is the live list the operation ran on.
	List *List
}

// ArrayListener receives array mutation events.
type ArrayListener func(ArrayMutation)

// arrayInterceptor instruments one specific List instance. Interception is
// per instance, not per identifier string: two context roots may expose
// structurally identical paths pointing at different lists.
type arrayInterceptor struct {
	mgr        *ContextManager
	identifier string
}

func installArray(mgr *ContextManager, l *List, identifier string) {
	if l == nil || mgr == nil {
		return
	}
	l.interceptor = &arrayInterceptor{mgr: mgr, identifier: identifier}
}

// uninstallArray restores the plain methods, so a de-referenced old list is
// not silently still instrumented.
func uninstallArray(l *List) {
	if l == nil {
		return
	}
	l.interceptor = nil
}

// mutate runs one mutating operation. When instrumented: snapshot, run the
// operation under the reentrancy guard, notify length listeners if the length
// changed, then fan the aggregate event out to every registered owner.
func (l *List) mutate(method string, args []any, op func() any) any {
	in := l.interceptor
	if in == nil || in.mgr == nil || in.mgr.disposed {
		return op()
	}
	oldLen := len(l.items)
	snapshot := append([]any(nil), l.items...)
	ret := in.guarded(op)
	if newLen := len(l.items); newLen != oldLen {
		in.mgr.execute(in.identifier+".length", newLen, oldLen)
	}
	in.mgr.dispatchArrayMutation(in.identifier, ArrayMutation{
		Method:      method,
		Arguments:   args,
		ReturnValue: ret,
		OldItems:    snapshot,
		List:        l,
	})
	return ret
}

// guarded holds the manager's array-operation flag for the duration of op.
// The deferred release survives a panicking operation.
func (in *arrayInterceptor) guarded(op func() any) any {
	in.mgr.inArrayOp = true
	defer func() { in.mgr.inArrayOp = false }()
	return op()
}

// Push appends elements and returns the new length.
func (l *List) Push(items ...any) int {
	ret := l.mutate("push", items, func() any {
		l.items = append(l.items, items...)
		return len(l.items)
	})
	return ret.(int)
}

// Pop removes and returns the last element, nil when empty.
func (l *List) Pop() any {
	return l.mutate("pop", nil, func() any {
		n := len(l.items)
		if n == 0 {
			return nil
		}
		v := l.items[n-1]
		l.items[n-1] = nil
		l.items = l.items[:n-1]
		return v
	})
}

// Shift removes and returns the first element, nil when empty.
func (l *List) Shift() any {
	return l.mutate("shift", nil, func() any {
		if len(l.items) == 0 {
			return nil
		}
		v := l.items[0]
		l.items = append(l.items[:0], l.items[1:]...)
		return v
	})
}

// Unshift prepends elements and returns the new length.
func (l *List) Unshift(items ...any) int {
	ret := l.mutate("unshift", items, func() any {
		merged := make([]any, 0, len(items)+len(l.items))
		merged = append(merged, items...)
		merged = append(merged, l.items...)
		l.items = merged
		return len(l.items)
	})
	return ret.(int)
}

// Splice removes deleteCount elements at start, inserts items in their place
// and returns the removed elements. Bounds are clamped, a negative start
// counts from the end.
func (l *List) Splice(start, deleteCount int, items ...any) []any {
	args := append([]any{start, deleteCount}, items...)
	ret := l.mutate("splice", args, func() any {
		n := len(l.items)
		if start < 0 {
			start = n + start
			if start < 0 {
				start = 0
			}
		}
		if start > n {
			start = n
		}
		if deleteCount < 0 {
			deleteCount = 0
		}
		if deleteCount > n-start {
			deleteCount = n - start
		}
		removed := append([]any(nil), l.items[start:start+deleteCount]...)
		tail := append([]any(nil), l.items[start+deleteCount:]...)
		merged := append(l.items[:start], append(append([]any(nil), items...), tail...)...)
		l.items = merged
		return removed
	})
	return ret.([]any)
}

// Sort orders the list in place with a stable sort and returns it.
func (l *List) Sort(less func(a, b any) bool) *List {
	l.mutate("sort", []any{less}, func() any {
		sort.SliceStable(l.items, func(i, j int) bool {
			return less(l.items[i], l.items[j])
		})
		return l
	})
	return l
}

// Reverse reverses the list in place and returns it.
func (l *List) Reverse() *List {
	l.mutate("reverse", nil, func() any {
		for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
			l.items[i], l.items[j] = l.items[j], l.items[i]
		}
		return l
	})
	return l
}
