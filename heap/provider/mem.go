package provider

// Mem is an in-memory arena with a fixed capacity reserved up front, so granted
// bytes never relocate and payload slices handed out by the allocator stay valid.
//
// NOT thread-safe.
type Mem struct {
	buf      []byte
	calls    int
	fill     byte
	scribble bool // fill newly granted bytes
}

// MemOption configures a Mem provider.
type MemOption func(*Mem)

// WithFill makes every extension fill its new bytes with b instead of leaving
// them zeroed, which surfaces code that relies on fresh memory being clean.
func WithFill(b byte) MemOption {
	return func(m *Mem) {
		m.fill = b
		m.scribble = true
	}
}

// NewMem creates an in-memory provider able to grant up to capacity bytes.
func NewMem(capacity int, opts ...MemOption) *Mem {
	if capacity < 0 {
		capacity = 0
	}
	m := &Mem{buf: make([]byte, 0, capacity)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Extend grants n more bytes and returns the offset of the first one.
func (m *Mem) Extend(n int) (int, error) {
	old := len(m.buf)
	if err := checkExtend(n, old, cap(m.buf)); err != nil {
		return 0, err
	}
	m.buf = m.buf[:old+n]
	if m.scribble {
		for i := old; i < len(m.buf); i++ {
			m.buf[i] = m.fill
		}
	}
	m.calls++
	return old, nil
}

// Bytes returns all granted bytes.
func (m *Mem) Bytes() []byte { return m.buf }

// Len returns the number of granted bytes.
func (m *Mem) Len() int { return len(m.buf) }

// Cap returns the total number of bytes this provider can grant.
func (m *Mem) Cap() int { return cap(m.buf) }

// Calls returns the number of successful Extend calls.
func (m *Mem) Calls() int { return m.calls }
