package socket

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Message is an ordered sequence of opaque byte items.
//
// A Message returned by a swapper is the send side: items are appended with
// the Put methods and the message is frozen once it is handed to a connection.
// A Message delivered by a connection is the receive side: every Get removes
// the head item, so items are consumed in the order they were put.
//
// Message is not safe for concurrent use.
type Message struct {
	items  [][]byte
	head   int
	size   int
	frozen bool
}

// NewMessage returns an empty message ready for Put calls.
func NewMessage() *Message {
	return &Message{}
}

// Len returns the number of items not yet consumed.
func (m *Message) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items) - m.head
}

// Size returns the encoded frame size in bytes. For a received message this
// is the number of bytes read from the wire.
func (m *Message) Size() int {
	if m.size > 0 {
		return m.size
	}
	size := prefixSize
	for _, item := range m.items[m.head:] {
		size += itemSizeWidth + len(item)
	}
	return size
}

// Freeze marks the message as sent. Later Put calls fail with ErrMessageFrozen.
func (m *Message) Freeze() {
	m.frozen = true
}

// Frozen reports whether the message has been frozen.
func (m *Message) Frozen() bool {
	return m.frozen
}

// Put appends a copy of item.
func (m *Message) Put(item []byte) error {
	if m.frozen {
		return ErrMessageFrozen
	}
	m.items = append(m.items, append([]byte(nil), item...))
	return nil
}

// PutString appends s encoded as UTF-8.
func (m *Message) PutString(s string) error {
	return m.Put([]byte(s))
}

// PutInt32 appends v as a 4-byte big-endian integer.
func (m *Message) PutInt32(v int32) error {
	return m.Put(binary.BigEndian.AppendUint32(nil, uint32(v)))
}

// PutInt64 appends v as an 8-byte big-endian integer.
func (m *Message) PutInt64(v int64) error {
	return m.Put(binary.BigEndian.AppendUint64(nil, uint64(v)))
}

// PutFloat32 appends v as a 4-byte IEEE 754 value.
func (m *Message) PutFloat32(v float32) error {
	return m.Put(binary.BigEndian.AppendUint32(nil, math.Float32bits(v)))
}

// PutFloat64 appends v as an 8-byte IEEE 754 value.
func (m *Message) PutFloat64(v float64) error {
	return m.Put(binary.BigEndian.AppendUint64(nil, math.Float64bits(v)))
}

// PutBool appends v as a 4-byte integer, 1 for true and 0 for false.
func (m *Message) PutBool(v bool) error {
	if v {
		return m.PutInt32(1)
	}
	return m.PutInt32(0)
}

// Peek returns the length of the head item without consuming it.
func (m *Message) Peek() (int, error) {
	if m.Len() == 0 {
		return 0, ErrNoData
	}
	return len(m.items[m.head]), nil
}

// Get removes and returns the head item.
func (m *Message) Get() ([]byte, error) {
	if m.Len() == 0 {
		return nil, ErrNoData
	}
	item := m.items[m.head]
	m.items[m.head] = nil
	m.head++
	return item, nil
}

// GetString removes the head item and decodes it as UTF-8.
func (m *Message) GetString() (string, error) {
	item, err := m.Get()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(item) {
		return "", errors.Wrap(ErrDecodeType, "item is not valid UTF-8")
	}
	return string(item), nil
}

// GetInt32 removes the head item and decodes it as a 4-byte integer.
func (m *Message) GetInt32() (int32, error) {
	item, err := m.getFixed(4, "int32")
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(item)), nil
}

// GetInt64 removes the head item and decodes it as an 8-byte integer.
func (m *Message) GetInt64() (int64, error) {
	item, err := m.getFixed(8, "int64")
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(item)), nil
}

// GetFloat32 removes the head item and decodes it as a 4-byte float.
func (m *Message) GetFloat32() (float32, error) {
	item, err := m.getFixed(4, "float32")
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(item)), nil
}

// GetFloat64 removes the head item and decodes it as an 8-byte float.
func (m *Message) GetFloat64() (float64, error) {
	item, err := m.getFixed(8, "float64")
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(item)), nil
}

// GetBool removes the head item and decodes it as a 4-byte 0/1 integer.
func (m *Message) GetBool() (bool, error) {
	item, err := m.getFixed(4, "bool")
	if err != nil {
		return false, err
	}
	switch binary.BigEndian.Uint32(item) {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrap(ErrDecodeType, "bool item is neither 0 nor 1")
	}
}

// GetTo removes the head item and writes it unchanged to w.
func (m *Message) GetTo(w io.Writer) (int64, error) {
	item, err := m.Get()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(item)
	return int64(n), err
}

// getFixed pops the head item and checks its width. The item is discarded
// even when the width does not match.
func (m *Message) getFixed(width int, kind string) ([]byte, error) {
	item, err := m.Get()
	if err != nil {
		return nil, err
	}
	if len(item) != width {
		return nil, errors.Wrapf(ErrDecodeType, "%s needs %d bytes, item has %d", kind, width, len(item))
	}
	return item, nil
}

// remaining returns the unconsumed items.
func (m *Message) remaining() [][]byte {
	return m.items[m.head:]
}

// Echo is a SwapFunc that answers with every item left in last.
// A nil last produces an empty message.
func Echo(_ *Swapper, _ string, last *Message) (*Message, error) {
	reply := NewMessage()
	for last.Len() > 0 {
		item, _ := last.Get()
		reply.items = append(reply.items, item)
	}
	return reply, nil
}
