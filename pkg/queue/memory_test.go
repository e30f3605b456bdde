package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryQueue(t *testing.T) {
	q := NewInMemoryQueue[int](8)

	_, ok := q.TryDequeue()
	assert.False(t, ok)

	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)
	assert.Equal(t, 3, q.Size())

	item, ok := q.TryDequeue()
	assert.True(t, ok)
	assert.Equal(t, 1, item)

	assert.Equal(t, []int{2, 3}, q.ReadAllMessages())
	assert.Equal(t, 0, q.Size())

	q.Enqueue(4)
	q.ClearQueue()
	assert.Equal(t, 0, q.Size())
}
