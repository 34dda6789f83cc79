package ldns

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSyslogHook(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	hook, err := NewSyslogHook(SyslogOptions{Network: "udp", Address: pc.LocalAddr().String(), Tag: "localdns-test"})
	require.NoError(t, err)

	log := logrus.New()
	log.AddHook(hook)
	log.WithField("qname", "example.com.").Warn("failed to resolve")

	buf := make([]byte, 4096)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	line := string(buf[:n])

	// daemon facility (3) and warning severity (4)
	require.True(t, strings.HasPrefix(line, "<28>"), line)
	require.Contains(t, line, "localdns-test")
	require.Contains(t, line, "failed to resolve")
	require.Contains(t, line, "example.com.")
}
