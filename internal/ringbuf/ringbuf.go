// package ringbuf provides a fixed capacity buffer which keeps the most recent elements.
package ringbuf

type RingBuf[T any] struct {
	buf []T
	// total is the number of elements ever pushed
	total int
}

func New[T any](n int) RingBuf[T] {
	return RingBuf[T]{buf: make([]T, n)}
}

func (rb *RingBuf[T]) MaxLen() int {
	return len(rb.buf)
}

// PushBack adds val to the back, dropping the front element if the buffer is full.
func (rb *RingBuf[T]) PushBack(val T) {
	if len(rb.buf) == 0 {
		rb.total++
		return
	}
	rb.buf[rb.total%len(rb.buf)] = val
	rb.total++
}

// At returns the i-th oldest element still in the buffer.
func (rb *RingBuf[T]) At(i int) T {
	if i < 0 || i >= rb.Len() {
		panic(i)
	}
	start := rb.total - rb.Len()
	return rb.buf[(start+i)%len(rb.buf)]
}

func (rb *RingBuf[T]) Len() int {
	return min(rb.total, len(rb.buf))
}

// Dropped returns the number of elements which have been pushed out of the buffer.
func (rb *RingBuf[T]) Dropped() int {
	return rb.total - rb.Len()
}

// AppendTo appends the elements in the buffer to out, oldest first.
func (rb *RingBuf[T]) AppendTo(out []T) []T {
	for i := 0; i < rb.Len(); i++ {
		out = append(out, rb.At(i))
	}
	return out
}

func (rb *RingBuf[T]) Reset() {
	rb.total = 0
}
