package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMdlwCountsRequests(t *testing.T) {
	MustRegister(prometheus.NewRegistry())

	h := Mdlw("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues(http.MethodPost, "/api/orders", "201"))

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/orders", nil))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/orders", nil))

	require.Equal(t, before+2, testutil.ToFloat64(RequestsTotal.WithLabelValues(http.MethodPost, "/api/orders", "201")))
}

func TestIncNil(t *testing.T) {
	require.NotPanics(t, func() { Inc(nil, "ok") })
}
