// Package bind is the observable context core of a declarative ui framework:
// it turns a plain data graph of Objects and Lists into an observed one,
// tracks property and array-mutation listeners keyed by dotted-path
// identifiers, and propagates change notifications, including cascades to
// observed descendant paths when an intermediate reference is replaced.
//
// The entry point is a Registry. Each Owner (a ui control hosting a context
// graph) gets a lazily created ContextManager:
//
//	registry := bind.NewRegistry()
//	owner := bind.NewOwner(ctx)
//	manager := registry.GetManager(owner)
//
//	remove := manager.Observe("user.address.city", bind.Registration{
//	    UID: owner.UID(),
//	    Listener: func(newValue, oldValue any) {
//	        // react to the change
//	    },
//	})
//
// Mutating the graph through Object.Set or the List mutating methods
// notifies the registered listeners synchronously. Replacing an intermediate
// object re-observes and re-notifies every observed descendant against the
// new subtree. Observation is torn down one registration at a time through
// the returned remove function, or wholesale with registry.Dispose when the
// owning control leaves the tree.
//
// Everything runs on a single goroutine: notification happens inside the
// call stack of whichever code performed the mutation, and no locking is
// done. Callers that share a registry across goroutines must serialize
// access themselves.
package bind
