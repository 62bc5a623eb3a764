package socket

import (
	"encoding/binary"
	"io"
	"math"

	"code.hybscloud.com/iox"
	"github.com/pkg/errors"
)

// Frame layout, all fields big-endian int32:
//
//	[header-size][total-size][item-size 1]...[item-size n][item 1]...[item n]
//
// header-size counts itself and is always 8+4n. total-size counts the
// header plus every item.
const (
	prefixSize    = 8
	itemSizeWidth = 4

	// itemOverhead is what a receiver holds per item besides its bytes:
	// one slice header and one decoded size.
	itemOverhead = 24 + 4
)

// Header is the decoded frame header.
type Header struct {
	HeaderSize int32
	TotalSize  int32
	ItemSizes  []int32
}

// ComposeHeader builds the header for the given ordered items.
// It returns ErrFrameTooLarge if the frame cannot be described with int32 sizes.
func ComposeHeader(items [][]byte) (Header, error) {
	headerSize := int64(prefixSize + itemSizeWidth*len(items))
	total := headerSize
	sizes := make([]int32, len(items))
	for i, item := range items {
		sizes[i] = int32(len(item))
		total += int64(len(item))
		if total > math.MaxInt32 {
			return Header{}, errors.Wrapf(ErrFrameTooLarge, "frame of %d items exceeds int32 size", len(items))
		}
	}

	return Header{
		HeaderSize: int32(headerSize),
		TotalSize:  int32(total),
		ItemSizes:  sizes,
	}, nil
}

// ItemCount returns the number of items described by the header.
func (h Header) ItemCount() int {
	return len(h.ItemSizes)
}

// AppendTo appends the encoded header to dst.
func (h Header) AppendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(h.HeaderSize))
	dst = binary.BigEndian.AppendUint32(dst, uint32(h.TotalSize))
	for _, size := range h.ItemSizes {
		dst = binary.BigEndian.AppendUint32(dst, uint32(size))
	}
	return dst
}

// frameCost is the memory a receiver commits to a frame: its wire bytes
// plus the bookkeeping of every item.
func frameCost(headerSize, totalSize int32) int64 {
	items := int64(headerSize-prefixSize) / itemSizeWidth
	return int64(totalSize) + items*itemOverhead
}

// checkCost fails with ErrFrameTooLarge when the frame costs more than
// maxFrame. maxFrame <= 0 disables the guard.
func checkCost(headerSize, totalSize int32, maxFrame int) error {
	if maxFrame <= 0 {
		return nil
	}
	if cost := frameCost(headerSize, totalSize); cost > int64(maxFrame) {
		return errors.Wrapf(ErrFrameTooLarge, "frame of %d bytes and %d items exceeds limit %d",
			totalSize, (headerSize-prefixSize)/itemSizeWidth, maxFrame)
	}
	return nil
}

// checkPrefix validates the fixed prefix before anything is allocated for the
// item-size table.
func checkPrefix(headerSize, totalSize int32, maxFrame int) error {
	if headerSize < prefixSize || (headerSize-prefixSize)%itemSizeWidth != 0 {
		return errors.Wrapf(ErrFraming, "invalid header size %d", headerSize)
	}
	if totalSize < headerSize {
		return errors.Wrapf(ErrFraming, "total size %d smaller than header size %d", totalSize, headerSize)
	}
	return checkCost(headerSize, totalSize, maxFrame)
}

func checkItemSizes(h Header) error {
	sum := int64(h.HeaderSize)
	for i, size := range h.ItemSizes {
		if size < 0 {
			return errors.Wrapf(ErrFraming, "item %d has negative size %d", i, size)
		}
		sum += int64(size)
	}
	if sum != int64(h.TotalSize) {
		return errors.Wrapf(ErrFraming, "item sizes sum to %d, header declares %d", sum, h.TotalSize)
	}
	return nil
}

// headerParser reads a header across any number of non-blocking reads.
// It first collects the 8-byte prefix, then the item-size table.
type headerParser struct {
	maxFrame int

	prefix [prefixSize]byte
	table  []byte
	off    int
	header Header
}

func newHeaderParser(maxFrame int) *headerParser {
	return &headerParser{maxFrame: maxFrame}
}

// resume continues parsing from r. It returns ResultFinished once the header
// is complete, ResultUnfinished when r would block, ResultDisconnect when the
// peer closed the stream and ResultError for anything else.
func (p *headerParser) resume(r io.Reader) (Result, error) {
	if p.table == nil {
		done, err := fill(r, p.prefix[:], &p.off)
		if !done {
			return p.failure(err)
		}

		p.header.HeaderSize = int32(binary.BigEndian.Uint32(p.prefix[0:4]))
		p.header.TotalSize = int32(binary.BigEndian.Uint32(p.prefix[4:8]))
		if err = checkPrefix(p.header.HeaderSize, p.header.TotalSize, p.maxFrame); err != nil {
			return ResultError, err
		}

		p.table = make([]byte, p.header.HeaderSize-prefixSize)
		p.off = 0
	}

	done, err := fill(r, p.table, &p.off)
	if !done {
		return p.failure(err)
	}

	p.header.ItemSizes = make([]int32, len(p.table)/itemSizeWidth)
	for i := range p.header.ItemSizes {
		p.header.ItemSizes[i] = int32(binary.BigEndian.Uint32(p.table[i*itemSizeWidth:]))
	}
	if err = checkItemSizes(p.header); err != nil {
		return ResultError, err
	}

	return ResultFinished, nil
}

func (p *headerParser) failure(err error) (Result, error) {
	switch {
	case iox.IsWouldBlock(err):
		return ResultUnfinished, nil
	case errors.Is(err, io.EOF):
		if p.off == 0 && p.table == nil {
			return ResultDisconnect, ErrPeerClosed
		}
		return ResultDisconnect, errors.Wrap(ErrPeerClosed, "truncated header")
	default:
		return ResultError, err
	}
}

// fill reads from r into p[*off:] until p is full, advancing *off.
// It reports whether p was filled; otherwise err explains why not.
func fill(r io.Reader, p []byte, off *int) (bool, error) {
	for *off < len(p) {
		n, err := r.Read(p[*off:])
		if n > 0 {
			*off += n
		}
		if *off == len(p) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, iox.ErrWouldBlock
		}
	}
	return true, nil
}
