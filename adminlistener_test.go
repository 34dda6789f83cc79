package ldns

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdminListenerVars(t *testing.T) {
	// Make sure there's at least one of our counters
	NewListenerMetrics("listener", "test-admin").query.Add(1)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	l := NewAdminListener("test-admin", ln.Addr().String())
	done := make(chan error)
	go func() { done <- l.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/localdns/vars")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	vars := make(map[string]interface{})
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vars))
	resp.Body.Close()
	require.Contains(t, vars, "localdns.listener.test-admin.query")

	require.NoError(t, l.Stop())
	require.NoError(t, <-done)
}
