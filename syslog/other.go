// +build windows plan9 nacl

package syslog

import (
	"errors"
	"log"
)

// ErrNotImplemented is returned by NewLogger on platforms without a
// system log service.
var ErrNotImplemented = errors.New("syslog: not implemented on this platform")

func NewLogger(p Priority, logFlag int) (*log.Logger, error) {
	return nil, ErrNotImplemented
}
