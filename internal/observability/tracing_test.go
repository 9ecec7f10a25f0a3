package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSetupTracing_NoEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "api", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSagaOrdersCounter(t *testing.T) {
	c := SagaOrders.WithLabelValues("failed", "SOLD_OUT")
	before := testutil.ToFloat64(c)
	c.Inc()
	require.Equal(t, before+1, testutil.ToFloat64(c))
}
