package main

import (
	"embed"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/ojalink/ojalink/libs/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//go:embed assets/gateway.v1.yaml
var openAPISpec embed.FS

type upstreams struct {
	account  http.Handler
	business http.Handler
	booking  http.Handler
	billing  http.Handler
}

func registerRoutes(mux *http.ServeMux, ac authConfig) {
	up := upstreams{
		account:  newProxy(config.String("ACCOUNT_URL", "http://account-service:8081")),
		business: newProxy(config.String("BUSINESS_URL", "http://business-service:8082")),
		booking:  newProxy(config.String("BOOKING_URL", "http://booking-service:8083")),
		billing:  newProxy(config.String("BILLING_URL", "http://billing-service:8084")),
	}
	authed := func(h http.Handler) http.Handler {
		return requireAuth(h, ac.jwtSecret, ac.jwks)
	}

	proxyPrefix(mux, "/api/v1/auth", up.account)
	// Customers join the queue from the public booking page, no account needed.
	proxyPrefix(mux, "/api/v1/public", up.booking)
	proxyPrefix(mux, "/api/v1/appointments", authed(up.booking))
	proxyPrefix(mux, "/api/v1/business", authed(requireRole(up.business, "owner", "admin")))
	// Stripe reaches the webhook without a JWT; the signature is the auth.
	proxyPrefix(mux, "/api/v1/billing/webhooks/stripe", up.billing)
	// The checkout return page polls and acks these before any sign-in.
	proxyPrefix(mux, "/api/v1/billing/checkout/session", up.billing)
	proxyPrefix(mux, "/api/v1/billing/checkout/session/ack", up.billing)
	proxyPrefix(mux, "/api/v1/billing", authed(up.billing))
	proxyPrefix(mux, "/.well-known/jwks.json", up.account)

	mux.HandleFunc("/billing/success", checkoutReturnPage("Payment successful", "success"))
	mux.HandleFunc("/billing/cancel", checkoutReturnPage("Payment canceled", "cancel"))

	mux.HandleFunc("/openapi", func(w http.ResponseWriter, _ *http.Request) {
		data, err := openAPISpec.ReadFile("assets/gateway.v1.yaml")
		if err != nil {
			http.Error(w, "openapi not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(data)
	})
}

func newProxy(rawURL string) http.Handler {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)
	return proxy
}

// proxyPrefix registers handler for both the exact prefix and everything
// under it.
func proxyPrefix(mux *http.ServeMux, prefix string, handler http.Handler) {
	mux.Handle(prefix, handler)
	mux.Handle(prefix+"/", handler)
}
