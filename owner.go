package bind

import (
	"log/slog"

	"github.com/google/uuid"
)

// Owner is anything that can host a context graph, conceptually a ui
// control. Its uid is stamped once at creation and stable for its lifetime;
// everything the observation core tracks about the owner hangs off that uid.
type Owner struct {
	uid     string
	context *Object
	sealed  bool
}

// NewOwner creates an owner around a context graph. The context may be nil;
// it can be set later, until the owner is disposed.
func NewOwner(ctx *Object) *Owner {
	return &Owner{uid: uuid.NewString(), context: ctx}
}

func (o *Owner) UID() string {
	return o.uid
}

func (o *Owner) Context() *Object {
	return o.context
}

// SetContext replaces the owner's context graph. Once the owner has been
// disposed the context is sealed and updates are dropped.
func (o *Owner) SetContext(ctx *Object) {
	if o.sealed {
		slog.Warn("context is sealed after disposal, update ignored", "uid", o.uid)
		return
	}
	o.context = ctx
}

// seal pins the context for good: nil, or a deep copy detached from every
// observation hook, so references held by dependents stop seeing live
// mutation.
func (o *Owner) seal(persist bool) {
	if persist && o.context != nil {
		snapshot, _ := Copy(o.context).(*Object)
		o.context = snapshot
	} else if !persist {
		o.context = nil
	}
	o.sealed = true
}
