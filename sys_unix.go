//go:build linux || darwin

package socket

import (
	"io"
	"net"
	"os"
	"syscall"

	"code.hybscloud.com/iox"
	"golang.org/x/sys/unix"
)

// descriptor returns the file descriptor behind raw. It stays valid until
// the owning connection is closed.
func descriptor(raw syscall.RawConn) (int, error) {
	var fd int
	err := raw.Control(func(s uintptr) {
		fd = int(s)
	})
	return fd, err
}

func temporary(err error) bool {
	return err == unix.EAGAIN || err == unix.EINTR
}

func readNonblocking(raw syscall.RawConn, p []byte) (int, error) {
	var (
		n     int
		opErr error
	)
	err := raw.Read(func(fd uintptr) bool {
		n, opErr = unix.Read(int(fd), p)
		return true
	})
	if err != nil {
		return 0, err
	}

	switch {
	case temporary(opErr):
		return 0, iox.ErrWouldBlock
	case opErr != nil:
		return 0, opErr
	case n == 0 && len(p) > 0:
		return 0, io.EOF
	}
	return n, nil
}

func writeNonblocking(raw syscall.RawConn, p []byte) (int, error) {
	var (
		n     int
		opErr error
	)
	err := raw.Write(func(fd uintptr) bool {
		n, opErr = unix.Write(int(fd), p)
		return true
	})
	if err != nil {
		return 0, err
	}

	switch {
	case temporary(opErr):
		return 0, iox.ErrWouldBlock
	case opErr != nil:
		return 0, opErr
	}
	return n, nil
}

// acceptNonblocking accepts one pending connection on l, or returns
// iox.ErrWouldBlock when none is queued.
func acceptNonblocking(l *net.TCPListener) (*net.TCPConn, error) {
	raw, err := l.SyscallConn()
	if err != nil {
		return nil, err
	}

	var (
		nfd   int
		opErr error
	)
	err = raw.Control(func(fd uintptr) {
		nfd, _, opErr = unix.Accept(int(fd))
	})
	if err != nil {
		return nil, err
	}
	if temporary(opErr) || opErr == unix.ECONNABORTED {
		return nil, iox.ErrWouldBlock
	}
	if opErr != nil {
		return nil, opErr
	}

	unix.CloseOnExec(nfd)
	f := os.NewFile(uintptr(nfd), "accepted")
	defer f.Close()

	// FileConn duplicates the descriptor and sets it non-blocking.
	c, err := net.FileConn(f)
	if err != nil {
		return nil, err
	}

	tcp, ok := c.(*net.TCPConn)
	if !ok {
		_ = c.Close()
		return nil, unix.EPROTOTYPE
	}
	return tcp, nil
}
