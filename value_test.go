package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Hobbies []string `json:"hobbies"`
}

func TestSerializationRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		person person
	}{
		{
			name: "simple person",
			person: person{
				Name:    "John Doe",
				Age:     30,
				Hobbies: []string{"reading", "cycling"},
			},
		},
		{
			name:   "zero value",
			person: person{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Serialize(tt.person)
			require.NoError(t, err)

			var got person
			require.NoError(t, Deserialize(data, &got))
			assert.Equal(t, tt.person, got)
		})
	}
}

func TestToValueBuildsObjectTree(t *testing.T) {
	v, err := ToValue(person{Name: "Ada", Age: 36, Hobbies: []string{"math"}})
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)

	name, _ := obj.Get("name")
	assert.Equal(t, "Ada", name)

	hobbies, _ := obj.Get("hobbies")
	list, ok := hobbies.(*List)
	require.True(t, ok)
	assert.Equal(t, 1, list.Len())

	var back person
	require.NoError(t, FromValue(obj, &back))
	assert.Equal(t, "Ada", back.Name)
	assert.Equal(t, []string{"math"}, back.Hobbies)
}

func TestObjectSetGetKeys(t *testing.T) {
	o := NewObject().Set("b", 2).Set("a", 1)

	v, ok := o.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = o.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, o.Keys())
	assert.Equal(t, 2, o.Len())

	o.Delete("a")
	assert.False(t, o.Has("a"))
}

func TestListBasics(t *testing.T) {
	l := NewList(1, 2, 3)

	v, ok := l.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = l.Get(5)
	assert.False(t, ok)

	assert.True(t, l.SetIndex(0, 9))
	assert.False(t, l.SetIndex(-1, 9))
	assert.Equal(t, []any{9, 2, 3}, l.Items())

	// Items is a copy, not the live slice.
	items := l.Items()
	items[0] = 0
	got, _ := l.Get(0)
	assert.Equal(t, 9, got)
}

func TestCopyDetachesHooks(t *testing.T) {
	reg := NewRegistry()
	inner := NewObject().Set("b", 1)
	ctx := NewObject().Set("a", inner).Set("items", NewList(1, 2))
	owner := NewOwner(ctx)
	m := reg.GetManager(owner)

	fired := 0
	m.Observe("a.b", Registration{UID: owner.UID(), Listener: func(newValue, oldValue any) {
		fired++
	}})

	snapshot := Copy(ctx).(*Object)

	// Same data...
	a, _ := snapshot.Get("a")
	b, _ := a.(*Object).Get("b")
	assert.Equal(t, 1, b)

	// ...different identity, and mutating the copy notifies nobody.
	assert.NotSame(t, inner, a)
	a.(*Object).Set("b", 99)
	assert.Zero(t, fired)

	// The original is still observed.
	inner.Set("b", 2)
	assert.Equal(t, 1, fired)
}

func TestSameValue(t *testing.T) {
	o := NewObject()
	l := NewList()

	assert.True(t, sameValue(nil, nil))
	assert.True(t, sameValue(1, 1))
	assert.True(t, sameValue(o, o))
	assert.False(t, sameValue(o, NewObject()))
	assert.False(t, sameValue(l, NewList()))
	assert.False(t, sameValue(1, nil))
	assert.False(t, sameValue(1, 1.0))
	assert.False(t, sameValue([]any{1}, []any{1})) // uncomparable: always changed
}
