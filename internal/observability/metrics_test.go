package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDomainCounters_Registered(t *testing.T) {
	for name, c := range map[string]prometheus.Collector{
		"bookings":  BookingsCreated,
		"orders":    OrdersCreated,
		"otp":       OTPVerifications,
		"contracts": ContractsSigned,
		"emails":    EmailsSent,
	} {
		if err := prometheus.Register(c); err == nil {
			t.Fatalf("%s counter was not registered at init", name)
		}
	}
}

func TestDomainCounters_Increment(t *testing.T) {
	before := testutil.ToFloat64(ContractsSigned.WithLabelValues("client"))
	ContractsSigned.WithLabelValues("client").Inc()
	if got := testutil.ToFloat64(ContractsSigned.WithLabelValues("client")); got != before+1 {
		t.Fatalf("contracts{client} = %v; want %v", got, before+1)
	}
}
