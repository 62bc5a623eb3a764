package socket

import (
	"io"
	"testing"

	"code.hybscloud.com/iox"
)

// stepReader serves data at most step bytes per call and reports
// iox.ErrWouldBlock between chunks, like a non-blocking socket.
type stepReader struct {
	data    []byte
	step    int
	eof     bool
	blocked bool
	calls   int
}

func (r *stepReader) Read(p []byte) (int, error) {
	r.calls++
	if len(r.data) == 0 {
		if r.eof {
			return 0, io.EOF
		}
		return 0, iox.ErrWouldBlock
	}
	if r.blocked {
		r.blocked = false
		return 0, iox.ErrWouldBlock
	}

	n := min(r.step, len(p), len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	r.blocked = true
	return n, nil
}

// stepWriter accepts at most step bytes per call and reports
// iox.ErrWouldBlock every other call.
type stepWriter struct {
	buf     []byte
	step    int
	blocked bool
	err     error
}

func (w *stepWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.blocked {
		w.blocked = false
		return 0, iox.ErrWouldBlock
	}

	n := min(w.step, len(p))
	w.buf = append(w.buf, p[:n]...)
	w.blocked = true
	return n, nil
}

// encodeFrame returns the wire bytes of msg.
func encodeFrame(t *testing.T, msg *Message) []byte {
	t.Helper()

	sb, err := newSendBuffer("test", msg, 0, nil)
	if err != nil {
		t.Fatalf("newSendBuffer failed: %v", err)
	}
	return sb.buf
}

// mustMessage builds a message from string items.
func mustMessage(t *testing.T, items ...string) *Message {
	t.Helper()

	msg := NewMessage()
	for _, item := range items {
		if err := msg.PutString(item); err != nil {
			t.Fatalf("PutString failed: %v", err)
		}
	}
	return msg
}
