package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	ldns "github.com/aperture/localdns"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	config      string
	listen      string
	hostsFile   string
	nameservers []string
	overrideNS  bool
	timeout     time.Duration
	logLevel    string
	syslog      bool
	adminAddr   string
	tlsCA       string
}

// Location of the hosts file used without --hosts-file.
var defaultHostsFile = ldns.DefaultHostsFile

func main() {
	var opt options
	if err := rootCmd(&opt).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd(opt *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "localdns",
		Short: "Local DNS forwarding proxy",
		Long: `Local DNS forwarding proxy.

Listens for DNS queries over UDP, answers names found
in the hosts file and forwards everything else to the
system's nameservers and any additional ones, taking
turns between them.

Nameservers can be given as host[:port] which uses UDP
and switches to TCP for truncated responses, or with
one of the schemes udp://, tcp://, tls:// or https://.
`,
		Example: `  localdns --listen 127.0.0.1:53 --ns 1.1.1.1 --ns tcp://8.8.8.8
  localdns --config localdns.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(cmd, *opt)
		},
		SilenceUsage: true,
		Version:      "1.0.0",
	}
	flags := cmd.Flags()
	flags.StringVarP(&opt.config, "config", "c", "", "TOML config file")
	flags.StringVarP(&opt.listen, "listen", "l", "0.0.0.0:53", "address to listen on for UDP queries")
	flags.StringVar(&opt.hostsFile, "hosts-file", "", "override hosts file path (for use in Docker environment)")
	flags.StringArrayVar(&opt.nameservers, "ns", nil, "additional nameserver, can be repeated (by default those listed in /etc/resolv.conf are used)")
	flags.BoolVarP(&opt.overrideNS, "override-ns", "o", false, "only use the nameservers given with --ns, ignore /etc/resolv.conf")
	flags.DurationVar(&opt.timeout, "timeout", ldns.DefaultQueryTimeout, "timeout for a single upstream query")
	flags.StringVar(&opt.logLevel, "log-level", "info", "log level, one of trace, debug, info, warn, error")
	flags.BoolVar(&opt.syslog, "syslog", false, "send logs to the local syslog daemon as well")
	flags.StringVar(&opt.adminAddr, "admin-addr", "", "address to serve metrics on, disabled if empty")
	flags.StringVar(&opt.tlsCA, "tls-ca", "", "CA certificates to verify tls:// and https:// nameservers with, system CAs if empty")
	return cmd
}

func start(cmd *cobra.Command, opt options) error {
	var (
		c   config
		err error
	)
	if opt.config != "" {
		if c, err = loadConfig(opt.config); err != nil {
			return err
		}
	}
	c = mergeFlags(cmd, opt, c)
	if err := c.validate(); err != nil {
		return err
	}

	if err := ldns.ConfigureLog(ldns.LogOptions{
		Level:         c.LogLevel,
		Syslog:        c.Syslog,
		SyslogOptions: ldns.SyslogOptions{Tag: "localdns"},
	}); err != nil {
		return err
	}

	resolver, err := buildResolver(c)
	if err != nil {
		return err
	}

	listeners := []ldns.Listener{ldns.NewUDPListener("udp", c.Listen, resolver)}
	if c.AdminAddr != "" {
		listeners = append(listeners, ldns.NewAdminListener("admin", c.AdminAddr))
	}
	return run(listeners)
}

// Builds the hosts table in front of a round-robin group of all nameservers.
func buildResolver(c config) (ldns.Resolver, error) {
	addrs, err := nameservers(c, ldns.DefaultResolvConf)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, errors.New("no nameservers configured")
	}
	tlsConfig, err := ldns.TLSClientConfig(c.TLSCA)
	if err != nil {
		return nil, err
	}
	var upstreams []ldns.Resolver
	for _, addr := range addrs {
		ns, err := ldns.ParseNameserver(addr)
		if err != nil {
			return nil, err
		}
		r, err := ldns.NewUpstream(ns, ldns.UpstreamOptions{
			Timeout:   c.Timeout.Duration,
			TLSConfig: tlsConfig,
		})
		if err != nil {
			return nil, err
		}
		ldns.Log.WithField("nameserver", ns).Info("using nameserver")
		upstreams = append(upstreams, r)
	}

	// The system hosts file has to be readable just like one given explicitly.
	hostsFile := c.HostsFile
	if hostsFile == "" {
		hostsFile = defaultHostsFile()
	}
	hosts, err := ldns.NewHostsDB(ldns.NewFileLoader(hostsFile))
	if err != nil {
		return nil, err
	}
	return ldns.NewHostsResolver("hosts", hosts, ldns.NewRoundRobin("upstreams", upstreams...)), nil
}

// Runs the listeners until one of them fails or a termination signal arrives.
func run(listeners []ldns.Listener) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		l := l
		g.Go(l.Start)
	}
	g.Go(func() error {
		<-ctx.Done()
		ldns.Log.Info("shutting down")
		for _, l := range listeners {
			if err := l.Stop(); err != nil {
				ldns.Log.WithError(err).WithField("id", l).Warn("failed to stop listener")
			}
		}
		return nil
	})
	return g.Wait()
}
