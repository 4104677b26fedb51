package syslog

// Priority is the severity/facility pair passed to NewLogger, mirroring
// the standard library's log/syslog.Priority without importing that
// package into every caller (which would break the build on platforms
// where log/syslog itself isn't available).
type Priority int

const (
	LOG_EMERG Priority = iota
	LOG_ALERT
	LOG_CRIT
	LOG_ERR
	LOG_WARNING
	LOG_NOTICE
	LOG_INFO
	LOG_DEBUG
)

const (
	LOG_DAEMON Priority = 3 << 3
	LOG_LOCAL0 Priority = 16 << 3
)
