package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	ldns "github.com/aperture/localdns"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type config struct {
	Listen              string
	HostsFile           string `toml:"hosts-file"`
	Nameservers         []string
	OverrideNameservers bool `toml:"override-nameservers"`
	Timeout             duration
	LogLevel            string `toml:"log-level"`
	Syslog              bool
	AdminAddr           string `toml:"admin-addr"`
	TLSCA               string `toml:"tls-ca"`
}

// Allows durations like "5s" in the config file.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// LoadConfig reads a config file and returns the decoded structure.
func loadConfig(name string) (config, error) {
	var c config
	f, err := os.Open(name)
	if err != nil {
		return c, err
	}
	defer f.Close()
	_, err = toml.DecodeReader(f, &c)
	return c, err
}

// Fills in values from the command line. Flags given explicitly take precedence
// over the config file, defaults only apply to values missing from the file.
func mergeFlags(cmd *cobra.Command, opt options, c config) config {
	flags := cmd.Flags()
	if flags.Changed("listen") || c.Listen == "" {
		c.Listen = opt.listen
	}
	if flags.Changed("hosts-file") {
		c.HostsFile = opt.hostsFile
	}
	if flags.Changed("ns") {
		c.Nameservers = append(c.Nameservers, opt.nameservers...)
	}
	if flags.Changed("override-ns") {
		c.OverrideNameservers = opt.overrideNS
	}
	if flags.Changed("timeout") || c.Timeout.Duration == 0 {
		c.Timeout.Duration = opt.timeout
	}
	if flags.Changed("log-level") || c.LogLevel == "" {
		c.LogLevel = opt.logLevel
	}
	if flags.Changed("syslog") {
		c.Syslog = opt.syslog
	}
	if flags.Changed("admin-addr") {
		c.AdminAddr = opt.adminAddr
	}
	if flags.Changed("tls-ca") {
		c.TLSCA = opt.tlsCA
	}
	return c
}

// Returns all problems with the configuration at once.
func (c config) validate() error {
	var errs *multierror.Error
	if c.HostsFile != "" {
		if err := checkHostsFile(c.HostsFile); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for _, ns := range c.Nameservers {
		if _, err := ldns.ParseNameserver(ns); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if c.TLSCA != "" {
		if _, err := ldns.TLSClientConfig(c.TLSCA); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if c.Timeout.Duration <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("invalid timeout %s", c.Timeout.Duration))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func checkHostsFile(name string) error {
	info, err := os.Stat(name)
	if err != nil {
		return fmt.Errorf("provided hosts file is not readable: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("provided hosts file '%s' is not a regular file", name)
	}
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("provided hosts file is not readable: %w", err)
	}
	return f.Close()
}

// Returns the list of nameservers to use. System nameservers come first unless
// they're overridden by explicitly configured ones.
func nameservers(c config, resolvConf string) ([]string, error) {
	if c.OverrideNameservers && len(c.Nameservers) == 0 {
		ldns.Log.Warn("override-ns was given without additional nameservers, ignoring")
		c.OverrideNameservers = false
	}
	if c.OverrideNameservers {
		return c.Nameservers, nil
	}
	system, err := ldns.SystemNameservers(resolvConf)
	if err != nil {
		return nil, err
	}
	return append(system, c.Nameservers...), nil
}
