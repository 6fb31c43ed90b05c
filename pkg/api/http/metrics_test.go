package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMetricsServer_Routes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("certgate_up 1\n"))
	})
	m := NewMetricsServer(9100, metrics, zap.NewNop())
	assert.Equal(t, ":9100", m.server.Addr)

	rr := get(t, m.server.Handler, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "certgate_up 1\n", rr.Body.String())

	rr = get(t, m.server.Handler, "/api/getalldata")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
