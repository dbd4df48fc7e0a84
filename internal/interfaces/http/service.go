package httpinterface

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/sealpay-network/sealpay-daemon/internal/core/application"
)

// Service is the HTTP front of the daemon. It owns the listener, the routes
// and the metrics registry.
type Service struct {
	server   *http.Server
	registry *prometheus.Registry
}

// ServiceOpts is the struct given to NewService.
type ServiceOpts struct {
	Address string

	IssuerSvc   application.IssuerService
	InvoiceSvc  application.InvoiceService
	TransferSvc application.TransferService
	BlobSvc     application.BlobService
	IdentitySvc application.IdentityService
}

func (o ServiceOpts) validate() error {
	if len(o.Address) <= 0 {
		return fmt.Errorf("missing listening address")
	}
	if o.IssuerSvc == nil || o.InvoiceSvc == nil || o.TransferSvc == nil ||
		o.BlobSvc == nil || o.IdentitySvc == nil {
		return fmt.Errorf("missing application services")
	}
	return nil
}

// NewService returns a new HTTP service with all routes registered.
func NewService(opts ServiceOpts) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := newHTTPMetrics(registry)

	h := &handler{
		issuerSvc:   opts.IssuerSvc,
		invoiceSvc:  opts.InvoiceSvc,
		transferSvc: opts.TransferSvc,
		blobSvc:     opts.BlobSvc,
		identitySvc: opts.IdentitySvc,
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/issue", metrics.wrap("issue", h.authenticated(h.issue)))
	mux.Handle("POST /v1/invoice", metrics.wrap("invoice", h.authenticated(h.createInvoice)))
	mux.Handle("POST /v1/psbt", metrics.wrap("psbt", h.authenticated(h.createPsbt)))
	mux.Handle("POST /v1/pay", metrics.wrap("pay", h.authenticated(h.pay)))
	mux.Handle("POST /v1/accept", metrics.wrap("accept", h.authenticated(h.accept)))
	mux.Handle("GET /v1/contracts", metrics.wrap("contracts", h.authenticated(h.listContracts)))
	mux.Handle("GET /v1/invoices", metrics.wrap("invoices", h.authenticated(h.listInvoices)))
	mux.Handle("GET /v1/transfers", metrics.wrap("transfers", h.authenticated(h.listTransfers)))
	mux.Handle("GET /v1/interfaces", metrics.wrap("interfaces", http.HandlerFunc(h.listInterfaces)))
	mux.Handle("GET /v1/schemas", metrics.wrap("schemas", http.HandlerFunc(h.listSchemas)))
	mux.Handle("GET /v1/key/{pubkey}", metrics.wrap("key", http.HandlerFunc(h.deriveKey)))
	mux.Handle("POST /v1/blob/{name}", metrics.wrap("blob_put", h.authenticated(h.putBlob)))
	mux.Handle("GET /v1/blob/{name}", metrics.wrap("blob_get", h.authenticated(h.getBlob)))
	mux.Handle("GET /v1/blob/{pubkey}/{name}", metrics.wrap("blob_get", h.authenticated(h.getBlobFrom)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(
		registry, promhttp.HandlerOpts{},
	))

	return &Service{
		server: &http.Server{
			Addr:         opts.Address,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		registry: registry,
	}, nil
}

// Handler returns the root handler of the service, routes and middlewares
// included.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

// Start makes the service listen on its address. It blocks until Stop is
// called or the listener fails.
func (s *Service) Start() error {
	log.Infof("http interface listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the service down, draining in-flight requests.
func (s *Service) Stop(ctx context.Context) error {
	log.Info("http interface shutting down")
	return s.server.Shutdown(ctx)
}
