//go:build !linux

package gpio

import "errors"

// RequestHardware is not available on non-Linux platforms.
func RequestHardware(chip string, led, relay, status, trigger int) (*Hardware, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}
