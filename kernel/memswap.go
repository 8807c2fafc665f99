package kernel

import "github.com/blumenra/vmpaging/defs"

// MemSwapBackend is an in-memory SwapBackend used by tests: it behaves
// exactly like FileSwapBackend's offset semantics without touching disk,
// which keeps the property tests in vmcore fast and hermetic.
type MemSwapBackend struct {
	buf     []byte
	created bool
}

// NewMemSwapBackend returns a backend sized for MaxFile slots.
func NewMemSwapBackend() *MemSwapBackend {
	return &MemSwapBackend{}
}

// Create allocates the backing buffer.
func (b *MemSwapBackend) Create() error {
	b.buf = make([]byte, defs.MaxFile*defs.PGSIZE)
	b.created = true
	return nil
}

// Destroy releases the backing buffer.
func (b *MemSwapBackend) Destroy() error {
	b.buf = nil
	b.created = false
	return nil
}

// WriteAt copies buf into the backing store at offset.
func (b *MemSwapBackend) WriteAt(offset int64, buf []byte) error {
	if !b.created {
		return defs.ErrInval
	}
	copy(b.buf[offset:int(offset)+len(buf)], buf)
	return nil
}

// ReadAt copies from the backing store at offset into buf.
func (b *MemSwapBackend) ReadAt(offset int64, buf []byte) error {
	if !b.created {
		return defs.ErrInval
	}
	copy(buf, b.buf[offset:int(offset)+len(buf)])
	return nil
}
