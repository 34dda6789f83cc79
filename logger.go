package ldns

import (
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// Log is a package-global logger used throughout the library. Configuration can be
// changed directly on this instance or the instance replaced.
var Log = logrus.New()

// LogOptions holds the logging configuration of the proxy.
type LogOptions struct {
	// One of the logrus level names, "info" if empty.
	Level string

	// Copy all entries to syslog.
	Syslog        bool
	SyslogOptions SyslogOptions
}

// ConfigureLog applies the options to Log.
func ConfigureLog(opt LogOptions) error {
	if opt.Level == "" {
		opt.Level = "info"
	}
	level, err := logrus.ParseLevel(opt.Level)
	if err != nil {
		return err
	}
	Log.SetLevel(level)
	if !opt.Syslog {
		return nil
	}
	hook, err := NewSyslogHook(opt.SyslogOptions)
	if err != nil {
		return err
	}
	Log.AddHook(hook)
	return nil
}

// Returns an entry with the fields identifying a query. The client address and
// listener are only present for queries that came in through a listener.
func logger(id string, q *dns.Msg, ci ClientInfo) *logrus.Entry {
	fields := logrus.Fields{
		"id":    id,
		"qtype": qType(q),
		"qname": qName(q),
	}
	if ci.SourceIP != nil {
		fields["client"] = ci.SourceIP
	}
	if ci.Listener != "" && ci.Listener != id {
		fields["listener"] = ci.Listener
	}
	return Log.WithFields(fields)
}
