package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniversalContainsEverything(t *testing.T) {
	u := Universal()
	assert.True(t, u.IsUniversal())
	assert.False(t, u.IsEmpty())
	assert.True(t, u.Contains(0))
	assert.True(t, u.Contains(99999))
	assert.Nil(t, u.IDs())
}

func TestOfEmptyIsEmptyConcrete(t *testing.T) {
	e := Of()
	assert.False(t, e.IsUniversal())
	assert.True(t, e.IsEmpty())
	assert.False(t, e.Contains(1))
}

func TestContains(t *testing.T) {
	s := Of(1, 2, 5)
	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(3))
	assert.Equal(t, 3, s.Len())
}

func TestContainsAll(t *testing.T) {
	s := Of(1, 2, 3)
	assert.True(t, s.ContainsAll(Of(1, 2)))
	assert.True(t, s.ContainsAll(Of()))
	assert.False(t, s.ContainsAll(Of(1, 4)))
	assert.True(t, Universal().ContainsAll(Of(7)))
	assert.False(t, s.ContainsAll(Universal()))
}

func TestContainsAny(t *testing.T) {
	s := Of(1, 2)
	assert.True(t, s.ContainsAny(Of(2, 9)))
	assert.False(t, s.ContainsAny(Of(8, 9)))
	assert.True(t, s.ContainsAny(Universal()))
	assert.True(t, Universal().ContainsAny(Of(42)))
}

func TestSubsetOf(t *testing.T) {
	assert.True(t, Of(1, 2).SubsetOf(Of(1, 2, 3)))
	assert.False(t, Of(1, 4).SubsetOf(Of(1, 2, 3)))
	assert.True(t, Of(1).SubsetOf(Universal()))
	assert.False(t, Universal().SubsetOf(Of(1, 2)))
}

func TestUnion(t *testing.T) {
	u := Of(1, 2).Union(Of(2, 3))
	assert.Equal(t, []ID{1, 2, 3}, u.IDs())

	assert.True(t, Of(1).Union(Universal()).IsUniversal())
	assert.True(t, Of().Union(Of()).IsEmpty())
}

func TestIDsSorted(t *testing.T) {
	s := Of(9, 1, 5)
	assert.Equal(t, []ID{1, 5, 9}, s.IDs())
}
