package queue

// Queue represents a basic FIFO queue.
type Queue[T any] interface {
	Enqueue(item T)
	TryDequeue() (T, bool)
	Size() int
	ReadAllMessages() []T
	ClearQueue()
}
