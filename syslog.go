package ldns

import (
	syslog "github.com/RackSec/srslog"
	"github.com/sirupsen/logrus"
)

// SyslogHook is a logrus hook that sends log entries to syslog.
type SyslogHook struct {
	writer *syslog.Writer
}

var _ logrus.Hook = &SyslogHook{}

type SyslogOptions struct {
	// "udp", "tcp", "unix". Leave empty for the local syslog daemon.
	Network string

	// Remote address, defaults to local syslog server
	Address string

	// Syslog tag
	Tag string
}

// NewSyslogHook connects to the syslog server and returns a hook that can be added to Log.
func NewSyslogHook(opt SyslogOptions) (*SyslogHook, error) {
	writer, err := syslog.Dial(opt.Network, opt.Address, syslog.LOG_INFO|syslog.LOG_DAEMON, opt.Tag)
	if err != nil {
		return nil, err
	}
	return &SyslogHook{writer: writer}, nil
}

func (h *SyslogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire writes the entry with the syslog severity matching its level.
func (h *SyslogHook) Fire(e *logrus.Entry) error {
	line, err := e.String()
	if err != nil {
		return err
	}
	switch e.Level {
	case logrus.PanicLevel:
		return h.writer.Emerg(line)
	case logrus.FatalLevel:
		return h.writer.Crit(line)
	case logrus.ErrorLevel:
		return h.writer.Err(line)
	case logrus.WarnLevel:
		return h.writer.Warning(line)
	case logrus.InfoLevel:
		return h.writer.Info(line)
	default:
		return h.writer.Debug(line)
	}
}
