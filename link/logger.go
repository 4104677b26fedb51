package link

import (
	"log"

	"github.com/fragglet/pppccp/syslog"
)

// NewSyslogLogger returns a *log.Logger suitable for NewSession's logger
// argument that writes to the system log instead of stderr, for the demo
// wiring running as a daemon. It returns an error on platforms where
// log/syslog isn't available.
func NewSyslogLogger() (*log.Logger, error) {
	return syslog.NewLogger(syslog.LOG_DAEMON|syslog.LOG_INFO, log.LstdFlags)
}
