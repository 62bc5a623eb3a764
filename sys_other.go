//go:build !(linux || darwin)

package socket

import (
	"net"
	"syscall"
)

func descriptor(syscall.RawConn) (int, error) {
	return -1, ErrUnsupportedPlatform
}

func readNonblocking(syscall.RawConn, []byte) (int, error) {
	return 0, ErrUnsupportedPlatform
}

func writeNonblocking(syscall.RawConn, []byte) (int, error) {
	return 0, ErrUnsupportedPlatform
}

func acceptNonblocking(*net.TCPListener) (*net.TCPConn, error) {
	return nil, ErrUnsupportedPlatform
}
