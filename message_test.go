package socket

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestMessage_TypedRoundTrip(t *testing.T) {
	msg := NewMessage()
	steps := []error{
		msg.PutString("héllo"),
		msg.PutInt32(-42),
		msg.PutInt64(math.MaxInt64),
		msg.PutFloat32(1.5),
		msg.PutFloat64(-2.25),
		msg.PutBool(true),
		msg.PutBool(false),
		msg.Put([]byte{1, 2, 3}),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("put %d failed: %v", i, err)
		}
	}

	if msg.Len() != 8 {
		t.Fatalf("Len = %d, want 8", msg.Len())
	}

	if s, err := msg.GetString(); err != nil || s != "héllo" {
		t.Errorf("GetString = %q, %v", s, err)
	}
	if v, err := msg.GetInt32(); err != nil || v != -42 {
		t.Errorf("GetInt32 = %d, %v", v, err)
	}
	if v, err := msg.GetInt64(); err != nil || v != math.MaxInt64 {
		t.Errorf("GetInt64 = %d, %v", v, err)
	}
	if v, err := msg.GetFloat32(); err != nil || v != 1.5 {
		t.Errorf("GetFloat32 = %v, %v", v, err)
	}
	if v, err := msg.GetFloat64(); err != nil || v != -2.25 {
		t.Errorf("GetFloat64 = %v, %v", v, err)
	}
	if v, err := msg.GetBool(); err != nil || !v {
		t.Errorf("GetBool = %v, %v; want true", v, err)
	}
	if v, err := msg.GetBool(); err != nil || v {
		t.Errorf("GetBool = %v, %v; want false", v, err)
	}

	var out bytes.Buffer
	if n, err := msg.GetTo(&out); err != nil || n != 3 || !bytes.Equal(out.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("GetTo = %d, %v, %v", n, err, out.Bytes())
	}
}

func TestMessage_Draining(t *testing.T) {
	msg := mustMessage(t, "a", "b")

	for i := 0; i < 2; i++ {
		if _, err := msg.Get(); err != nil {
			t.Fatalf("Get %d failed: %v", i, err)
		}
	}

	if msg.Len() != 0 {
		t.Errorf("Len = %d, want 0", msg.Len())
	}
	for i := 0; i < 3; i++ {
		if _, err := msg.Get(); !errors.Is(err, ErrNoData) {
			t.Errorf("Get after drain = %v, want ErrNoData", err)
		}
	}
	if _, err := msg.GetInt32(); !errors.Is(err, ErrNoData) {
		t.Errorf("GetInt32 after drain = %v, want ErrNoData", err)
	}
	if _, err := msg.Peek(); !errors.Is(err, ErrNoData) {
		t.Errorf("Peek after drain = %v, want ErrNoData", err)
	}
}

func TestMessage_DecodeTypeDiscardsItem(t *testing.T) {
	msg := mustMessage(t, "abc", "next")

	if _, err := msg.GetInt32(); !errors.Is(err, ErrDecodeType) {
		t.Fatalf("GetInt32 = %v, want ErrDecodeType", err)
	}
	if msg.Len() != 1 {
		t.Errorf("Len = %d, want 1 after failed decode", msg.Len())
	}
	if s, err := msg.GetString(); err != nil || s != "next" {
		t.Errorf("GetString = %q, %v; want next", s, err)
	}
}

func TestMessage_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		item []byte
		get  func(*Message) error
	}{
		{"int64 from 4 bytes", []byte{0, 0, 0, 1}, func(m *Message) error { _, err := m.GetInt64(); return err }},
		{"float32 from 8 bytes", make([]byte, 8), func(m *Message) error { _, err := m.GetFloat32(); return err }},
		{"float64 from 2 bytes", make([]byte, 2), func(m *Message) error { _, err := m.GetFloat64(); return err }},
		{"bool out of range", []byte{0, 0, 0, 2}, func(m *Message) error { _, err := m.GetBool(); return err }},
		{"invalid utf8", []byte{0xff, 0xfe}, func(m *Message) error { _, err := m.GetString(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewMessage()
			if err := msg.Put(tt.item); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if err := tt.get(msg); !errors.Is(err, ErrDecodeType) {
				t.Errorf("err = %v, want ErrDecodeType", err)
			}
			if msg.Len() != 0 {
				t.Errorf("Len = %d, want 0", msg.Len())
			}
		})
	}
}

func TestMessage_Frozen(t *testing.T) {
	msg := mustMessage(t, "a")
	msg.Freeze()

	if !msg.Frozen() {
		t.Error("Frozen = false after Freeze")
	}
	if err := msg.PutString("b"); !errors.Is(err, ErrMessageFrozen) {
		t.Errorf("PutString after Freeze = %v, want ErrMessageFrozen", err)
	}
	if msg.Len() != 1 {
		t.Errorf("Len = %d, want 1", msg.Len())
	}
}

func TestMessage_PutCopies(t *testing.T) {
	item := []byte("abc")
	msg := NewMessage()
	if err := msg.Put(item); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	item[0] = 'x'

	got, _ := msg.Get()
	if string(got) != "abc" {
		t.Errorf("Get = %q, want abc", got)
	}
}

func TestMessage_SizeAndPeek(t *testing.T) {
	msg := mustMessage(t, "ab", "")
	if want := 8 + 4*2 + 2; msg.Size() != want {
		t.Errorf("Size = %d, want %d", msg.Size(), want)
	}
	if n, err := msg.Peek(); err != nil || n != 2 {
		t.Errorf("Peek = %d, %v; want 2", n, err)
	}
	if msg.Len() != 2 {
		t.Errorf("Peek consumed an item")
	}
}

func TestEcho(t *testing.T) {
	last := mustMessage(t, "a", "b")
	_, _ = last.Get()

	reply, err := Echo(nil, "peer", last)
	if err != nil {
		t.Fatalf("Echo failed: %v", err)
	}
	if reply.Len() != 1 {
		t.Fatalf("reply Len = %d, want 1", reply.Len())
	}
	if s, _ := reply.GetString(); s != "b" {
		t.Errorf("reply = %q, want b", s)
	}

	empty, err := Echo(nil, "peer", nil)
	if err != nil || empty.Len() != 0 {
		t.Errorf("Echo(nil) = %v items, %v", empty.Len(), err)
	}
}
