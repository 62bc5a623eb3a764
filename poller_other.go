//go:build !(linux || darwin)

package socket

import "time"

type poller struct{}

func newPoller() (*poller, error) {
	return nil, ErrUnsupportedPlatform
}

func (p *poller) wait(map[int]handle, time.Duration) ([]handle, bool, error) {
	return nil, false, ErrUnsupportedPlatform
}

func (p *poller) wake() error  { return nil }
func (p *poller) close() error { return nil }
