package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueQueueKeepsLatestValue(t *testing.T) {
	q := NewUniqueQueue[int, string]()

	assert.True(t, q.Enqueue(1, "v1"))
	assert.True(t, q.Enqueue(2, "a"))
	assert.False(t, q.Enqueue(1, "v2"))
	assert.Equal(t, 2, q.Len())

	k, v, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 1, k)
	assert.Equal(t, "v2", v)
	assert.False(t, q.Contains(1))
}

func TestUniqueQueueRemove(t *testing.T) {
	q := NewUniqueQueue[int, string]()
	q.Enqueue(1, "a")
	q.Enqueue(2, "b")
	q.Enqueue(3, "c")

	assert.True(t, q.Remove(2))
	assert.False(t, q.Remove(2))

	var keys []int
	for {
		k, _, ok := q.Dequeue()
		if !ok {
			break
		}
		keys = append(keys, k)
	}
	assert.Equal(t, []int{1, 3}, keys)
}

func TestThreadSafeQueueDrain(t *testing.T) {
	q := NewThreadSafeQueue[int]()
	assert.Nil(t, q.Drain())

	q.Push(4)
	q.Push(5)
	assert.Equal(t, []int{4, 5}, q.Drain())
	assert.Equal(t, 0, q.Len())
}
