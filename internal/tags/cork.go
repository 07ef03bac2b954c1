package tags

// Sink receives finished tag entries.
type Sink interface {
	Submit(*Entry)
}

// CorkQueue is a Sink that holds entries back until the whole input
// file has been processed, so output ordering and storage can operate
// on the complete batch.
type CorkQueue struct {
	entries []*Entry
}

// NewCorkQueue creates an empty queue.
func NewCorkQueue() *CorkQueue {
	return &CorkQueue{}
}

// Submit appends an entry to the queue.
func (q *CorkQueue) Submit(e *Entry) {
	q.entries = append(q.entries, e)
}

// Len returns the number of queued entries.
func (q *CorkQueue) Len() int {
	return len(q.entries)
}

// Drain returns the queued entries in submission order and empties
// the queue for the next file.
func (q *CorkQueue) Drain() []*Entry {
	out := q.entries
	q.entries = nil
	return out
}
