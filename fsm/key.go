package fsm

import (
	"encoding/binary"
	"hash"

	"github.com/zeebo/xxh3"
)

// Key identifies a table row by the current state and the event.
type Key struct {
	State string
	Event string
}

// HashFunc maps a key to a bucket. Equal keys must hash equally; distinct
// keys may collide.
type HashFunc func(key Key) uint64

// UpdateHash writes a length-prefixed encoding of the key so that
// ("ab", "c") and ("a", "bc") never write the same bytes.
func (k Key) UpdateHash(h hash.Hash) error {
	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], uint64(len(k.State)))

	if _, err := h.Write(buf[:]); err != nil {
		return err
	}

	if _, err := h.Write([]byte(k.State)); err != nil {
		return err
	}

	if _, err := h.Write([]byte(k.Event)); err != nil {
		return err
	}

	return nil
}

// Equals reports structural equality.
func (k Key) Equals(other Key) bool {
	return k.State == other.State && k.Event == other.Event
}

func (k Key) String() string {
	return "(" + k.State + ", " + k.Event + ")"
}

// Xxh3 is the default HashFunc.
func Xxh3(key Key) uint64 {
	h := xxh3.New()

	// The hasher never fails a write.
	_ = key.UpdateHash(h)

	return h.Sum64()
}
