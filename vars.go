package ldns

import (
	"expvar"
	"fmt"
)

// ListenerMetrics holds counters for listeners and upstream clients.
type ListenerMetrics struct {
	// Queries received or sent.
	query *expvar.Int
	// Responses by response code.
	response *expvar.Map
	// Errors by type.
	err *expvar.Map
	// Queries that got no response.
	drop *expvar.Int
}

// NewListenerMetrics returns the metrics for the given element, creating them if needed.
func NewListenerMetrics(base string, id string) *ListenerMetrics {
	return &ListenerMetrics{
		query:    getVarInt(base, id, "query"),
		response: getVarMap(base, id, "response"),
		err:      getVarMap(base, id, "error"),
		drop:     getVarInt(base, id, "drop"),
	}
}

// Get an *expvar.Int with the given path.
func getVarInt(base string, id string, name string) *expvar.Int {
	fullname := fmt.Sprintf("localdns.%s.%s.%s", base, id, name)
	if v := expvar.Get(fullname); v != nil {
		return v.(*expvar.Int)
	}
	return expvar.NewInt(fullname)
}

// Get an *expvar.Map with the given path.
func getVarMap(base string, id string, name string) *expvar.Map {
	fullname := fmt.Sprintf("localdns.%s.%s.%s", base, id, name)
	if v := expvar.Get(fullname); v != nil {
		return v.(*expvar.Map)
	}
	return expvar.NewMap(fullname)
}
