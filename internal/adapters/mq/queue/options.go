package queue

// Option applies a configuration option to the LatestQueue.
type Option func(*LatestQueue)

// WithCapacity sets how many selections may wait. One keeps only the latest.
func WithCapacity(capacity int) Option {
	return func(q *LatestQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
