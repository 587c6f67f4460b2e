package bind

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Object is the branch node of a data context graph. It behaves like a plain
// string-keyed map except that mutations go through Set, which is where
// observation hooks are attached. Reading or writing the graph through any
// other means bypasses observation and is out of contract.
type Object struct {
	fields map[string]any
	cells  map[string]*cell
}

func NewObject() *Object {
	return &Object{
		fields: make(map[string]any),
		cells:  make(map[string]*cell),
	}
}

func (o *Object) Get(key string) (any, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// Set stores a value under key. When the property is observed, a no-op
// assignment (same value by identity) notifies nothing; otherwise the change
// is reported to the owning context manager.
func (o *Object) Set(key string, value any) *Object {
	old, had := o.fields[key]
	if c, ok := o.cells[key]; ok {
		if had && sameValue(value, old) {
			return o
		}
		o.fields[key] = value
		c.fire(value, old)
		return o
	}
	o.fields[key] = value
	return o
}

// Delete removes a key. Deletion is not a mutation event.
func (o *Object) Delete(key string) {
	delete(o.fields, key)
}

func (o *Object) Has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

func (o *Object) Len() int {
	return len(o.fields)
}

// Keys returns the field names in lexical order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List is the sequence node of a data context graph. It is a reference type:
// the wrapper identity is stable across mutation, which is what array
// observation is attached to. The mutating methods live in array.go.
type List struct {
	items       []any
	interceptor *arrayInterceptor
}

func NewList(items ...any) *List {
	l := &List{items: make([]any, 0, len(items))}
	l.items = append(l.items, items...)
	return l
}

func (l *List) Get(index int) (any, bool) {
	if index < 0 || index >= len(l.items) {
		return nil, false
	}
	return l.items[index], true
}

func (l *List) Len() int {
	return len(l.items)
}

// Items returns a shallow copy of the backing slice.
func (l *List) Items() []any {
	return append([]any(nil), l.items...)
}

// SetIndex writes an element in place. Index assignment is not one of the
// intercepted mutating operations, same as the system this models.
func (l *List) SetIndex(index int, value any) bool {
	if index < 0 || index >= len(l.items) {
		return false
	}
	l.items[index] = value
	return true
}

// Copy deep-copies an Object or List tree. Observation hooks are not carried
// over: the copy is plain data, detached from any manager. Values that are
// neither Object nor List are returned as-is.
func Copy(v any) any {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil
		}
		o := NewObject()
		for k, val := range t.fields {
			o.fields[k] = Copy(val)
		}
		return o
	case *List:
		if t == nil {
			return nil
		}
		nl := &List{items: make([]any, len(t.items))}
		for i, val := range t.items {
			nl.items[i] = Copy(val)
		}
		return nl
	default:
		return v
	}
}

// sameValue reports whether an assignment is a no-op. Values of uncomparable
// types are always treated as changed.
func sameValue(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.fields)
}

func (o *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.fields = make(map[string]any, len(raw))
	if o.cells == nil {
		o.cells = make(map[string]*cell)
	}
	for k, v := range raw {
		o.fields[k] = fromRaw(v)
	}
	return nil
}

func (l *List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

func (l *List) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.items = make([]any, len(raw))
	for i, v := range raw {
		l.items[i] = fromRaw(v)
	}
	return nil
}

// fromRaw rebuilds an Object/List tree from decoded JSON containers.
func fromRaw(v any) any {
	switch t := v.(type) {
	case map[string]any:
		o := NewObject()
		for k, val := range t {
			o.fields[k] = fromRaw(val)
		}
		return o
	case []any:
		l := &List{items: make([]any, len(t))}
		for i, val := range t {
			l.items[i] = fromRaw(val)
		}
		return l
	default:
		return v
	}
}

// Serialize encodes a value, Object/List trees included.
func Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Deserialize decodes data produced by Serialize into the target.
func Deserialize(data []byte, into any) error {
	return json.Unmarshal(data, into)
}

// ToValue converts an application value (typically a struct) into an
// Object/List tree suitable for use as a context graph.
func ToValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return fromRaw(raw), nil
}

// FromValue converts an Object/List tree back into an application value.
func FromValue(v any, into any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, into)
}
