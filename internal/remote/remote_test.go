package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"name":"chai"}`))
		case "/conflict":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"insufficient funds","code":"INSUFFICIENT_FUNDS"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>`))
		}
	}))
	defer srv.Close()
	hc := NewHTTPClient(time.Second)
	ctx := context.Background()

	var out struct{ Name string }
	require.NoError(t, Call(ctx, hc, http.MethodGet, srv.URL+"/ok", &out))
	assert.Equal(t, "chai", out.Name)

	err := Call(ctx, hc, http.MethodPost, srv.URL+"/conflict", nil)
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "INSUFFICIENT_FUNDS", se.Code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", CodeOf(err))
	assert.Empty(t, CodeOf(nil))

	err = Call(ctx, hc, http.MethodGet, srv.URL+"/other", nil)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Bad Gateway", se.Message)
}

func TestCall_Transport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := Call(context.Background(), NewHTTPClient(time.Second), http.MethodGet, url, nil)
	require.Error(t, err)
	assert.Zero(t, StatusOf(err))
}

func TestNewHTTPClient_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("traceparent")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	require.NoError(t, Call(ctx, NewHTTPClient(time.Second), http.MethodGet, srv.URL, nil))
	assert.True(t, strings.HasPrefix(got, "00-4bf92f3577b34da6a3ce929d0e0e4736-"), got)
}
