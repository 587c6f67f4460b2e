package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveWalksNestedObjects(t *testing.T) {
	city := "Lyon"
	address := NewObject().Set("city", city)
	user := NewObject().Set("address", address)
	root := NewObject().Set("user", user)

	assert.Equal(t, city, Resolve(root, []string{"user", "address", "city"}))
	assert.Equal(t, address, Resolve(root, []string{"user", "address"}))
}

func TestResolveShortCircuitsOnMissing(t *testing.T) {
	root := NewObject().Set("a", nil)

	assert.Nil(t, Resolve(nil, []string{"a"}))
	assert.Nil(t, Resolve(root, []string{"a", "b"}))
	assert.Nil(t, Resolve(root, []string{"missing", "b", "c"}))
}

func TestResolveThroughPrimitiveIsNil(t *testing.T) {
	root := NewObject().Set("a", 42)

	assert.Nil(t, Resolve(root, []string{"a", "b"}))
	assert.Equal(t, 42, Resolve(root, []string{"a"}))
}

func TestResolveListSegments(t *testing.T) {
	items := NewList("x", "y", "z")
	root := NewObject().Set("items", items)

	assert.Equal(t, "y", Resolve(root, []string{"items", "1"}))
	assert.Equal(t, 3, Resolve(root, []string{"items", "length"}))
	assert.Nil(t, Resolve(root, []string{"items", "9"}))
	assert.Nil(t, Resolve(root, []string{"items", "notanindex"}))
}

func TestSplitJoinPath(t *testing.T) {
	segments := SplitPath("a.b.c")
	assert.Equal(t, []string{"a", "b", "c"}, segments)
	assert.Equal(t, "a.b.c", JoinPath(segments))
}
