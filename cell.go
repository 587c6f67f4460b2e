package bind

// cell is the observation hook installed on a single (object, key) pair. It
// stands in for accessor redefinition: once installed, Object.Set routes the
// assignment through it so the owning manager sees the change. The property
// value itself stays in the object's field map; the cell only carries the
// identifier the property is known under and the manager to report to.
type cell struct {
	identifier string
	mgr        *ContextManager
}

func (c *cell) fire(newValue, oldValue any) {
	if c.mgr == nil || c.mgr.disposed {
		return
	}
	// Mutations applied from inside an intercepted array operation are
	// reported once, by the aggregate array event, not per-property.
	if c.mgr.inArrayOp {
		return
	}
	c.mgr.onCellChange(c.identifier, newValue, oldValue)
}

// installCell attaches a hook to target[key]. Re-installing on an already
// hooked property is a no-op, whichever manager asks first keeps it.
func installCell(mgr *ContextManager, target *Object, key, identifier string) {
	if target == nil || key == "" {
		return
	}
	if _, ok := target.cells[key]; ok {
		return
	}
	target.cells[key] = &cell{identifier: identifier, mgr: mgr}
}

// uninstallCell restores plain-store behavior for target[key]. The current
// value is untouched; it already lives in the field map.
func uninstallCell(target *Object, key string) {
	if target == nil {
		return
	}
	delete(target.cells, key)
}
