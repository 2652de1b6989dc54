package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. HTTP traffic metrics live in the middleware package; these
// track marketplace events the services produce.
var (
	// BookingsCreated counts persisted bookings.
	BookingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_bookings_created_total",
		Help: "Total number of bookings created.",
	})

	// OrdersCreated counts persisted product orders.
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_orders_created_total",
		Help: "Total number of product orders created.",
	})

	// OTPVerifications counts email verification attempts by outcome
	// (verified, already_verified, expired, invalid, not_found).
	OTPVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_otp_verifications_total",
		Help: "Email OTP verification attempts by result.",
	}, []string{"result"})

	// ContractsSigned counts contract signatures by signing party.
	ContractsSigned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_contracts_signed_total",
		Help: "Contract signatures by party.",
	}, []string{"role"})

	// EmailsSent counts outbound OTP emails by result (sent, failed).
	EmailsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_emails_sent_total",
		Help: "Outbound OTP emails by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(BookingsCreated, OrdersCreated, OTPVerifications, ContractsSigned, EmailsSent)
}
