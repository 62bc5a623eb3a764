package socket

import (
	"io"

	"code.hybscloud.com/iox"
	"github.com/pkg/errors"
)

// Result is the outcome of one non-blocking read or write step.
type Result int

const (
	// ResultError means the step failed; the connection must be terminated.
	ResultError Result = iota
	// ResultDisconnect means the peer closed the stream while a header was expected.
	ResultDisconnect
	// ResultUnfinished means progress was made but the frame is not complete yet.
	ResultUnfinished
	// ResultFinished means a whole frame has been sent or received.
	ResultFinished
)

func (r Result) String() string {
	switch r {
	case ResultError:
		return "error"
	case ResultDisconnect:
		return "disconnect"
	case ResultUnfinished:
		return "unfinished"
	case ResultFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// sendBuffer holds one composed frame and drains it into a non-blocking writer.
type sendBuffer struct {
	remote string
	buf    []byte
	off    int
	onSend func(remote string, n int)
}

// newSendBuffer freezes msg and composes its frame.
func newSendBuffer(remote string, msg *Message, maxFrame int, onSend func(string, int)) (*sendBuffer, error) {
	msg.Freeze()

	items := msg.remaining()
	header, err := ComposeHeader(items)
	if err != nil {
		return nil, err
	}
	if err = checkCost(header.HeaderSize, header.TotalSize, maxFrame); err != nil {
		return nil, err
	}

	buf := header.AppendTo(make([]byte, 0, header.TotalSize))
	for _, item := range items {
		buf = append(buf, item...)
	}

	return &sendBuffer{remote: remote, buf: buf, onSend: onSend}, nil
}

// write drains as much of the frame as w accepts.
func (b *sendBuffer) write(w io.Writer) (Result, error) {
	for b.off < len(b.buf) {
		n, err := w.Write(b.buf[b.off:])
		if n > 0 {
			b.off += n
		}
		if b.off == len(b.buf) {
			break
		}
		if iox.IsWouldBlock(err) || (err == nil && n == 0) {
			return ResultUnfinished, nil
		}
		if err != nil {
			return ResultError, err
		}
	}

	if b.onSend != nil {
		b.onSend(b.remote, len(b.buf))
	}
	return ResultFinished, nil
}

// receiveBuffer reassembles at most one in-flight frame from a non-blocking reader.
type receiveBuffer struct {
	remote   string
	maxFrame int

	parser *headerParser
	items  [][]byte
	idx    int
	off    int

	onReceive func(remote string, msg *Message)
}

func newReceiveBuffer(remote string, maxFrame int, onReceive func(string, *Message)) *receiveBuffer {
	return &receiveBuffer{remote: remote, maxFrame: maxFrame, onReceive: onReceive}
}

// read continues the in-flight frame. On ResultFinished it returns the
// assembled message, after the receive listener has seen it.
func (b *receiveBuffer) read(r io.Reader) (Result, *Message, error) {
	if b.parser == nil {
		b.parser = newHeaderParser(b.maxFrame)
	}

	if b.items == nil {
		res, err := b.parser.resume(r)
		if res != ResultFinished {
			if res != ResultUnfinished {
				b.reset()
			}
			return res, nil, err
		}

		sizes := b.parser.header.ItemSizes
		b.items = make([][]byte, len(sizes))
		for i, size := range sizes {
			b.items[i] = make([]byte, size)
		}
		b.idx, b.off = 0, 0
	}

	for b.idx < len(b.items) {
		done, err := fill(r, b.items[b.idx], &b.off)
		if !done {
			switch {
			case iox.IsWouldBlock(err):
				return ResultUnfinished, nil, nil
			case errors.Is(err, io.EOF):
				b.reset()
				return ResultError, nil, errors.Wrap(ErrPeerClosed, "truncated item")
			default:
				b.reset()
				return ResultError, nil, err
			}
		}
		b.idx++
		b.off = 0
	}

	msg := &Message{items: b.items, size: int(b.parser.header.TotalSize), frozen: true}
	b.reset()

	if b.onReceive != nil {
		b.onReceive(b.remote, msg)
	}
	return ResultFinished, msg, nil
}

func (b *receiveBuffer) reset() {
	b.parser = nil
	b.items = nil
	b.idx, b.off = 0, 0
}
