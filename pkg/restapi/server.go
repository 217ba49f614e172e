/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package restapi exposes the gateway over HTTP.
//
// Routes:
//
//	POST /api/enroll/admin        {"username","password"}
//	POST /api/enroll/user         {"username"}
//	POST /api/ledger/addaccount   {"username","account":{"id","name","balance"}}
//	POST /api/ledger/transfer     {"username","transfer":{"from","to","balance"}}
//	POST /api/ledger/query        {"username","account":{"id"}}
//	GET  /api/ledger/accounts?username=
//	GET  /api/ledger/transactions/{txid}?username=
//	GET  /healthz
//	GET  /metrics
package restapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hyperledger/fabric-lib-go/healthz"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/gateway"
	"github.com/sharad-develop/fabric-node-ledger/pkg/ledgercc"
)

var logger = logging.NewLogger("ledger/rest")

// DefaultMaxBodySize limits the size of request bodies
const DefaultMaxBodySize = 1 << 20

const (
	headerContentType = "Content-Type"
	applicationJSON   = "application/json"
	textPlain         = "text/plain; charset=utf-8"
)

var allowedCORSHeaders = []string{"Accept", "Accept-Language", "Content-Language", "Origin", headerContentType}

// Gateway is the ledger API served over HTTP
type Gateway interface {
	EnrollAdmin(username, password string) (*gateway.Credential, error)
	RegisterUser(username string) (string, error)
	AddAccount(username, id, name, balance string) (*gateway.Outcome, error)
	Transfer(username, fromID, toID, amount string) (*gateway.Outcome, error)
	Query(username, id string) ([]byte, error)
	QueryAll(username string) ([]ledgercc.QueryResult, error)
	Transaction(username, txID string) (*gateway.TransactionStatus, error)
}

// Server serves the ledger API
type Server struct {
	gw          Gateway
	maxBodySize int64
	gatherer    prom.Gatherer
	health      *healthz.HealthHandler
}

// Option configures the Server
type Option func(*Server) error

// WithMaxBodySize overrides DefaultMaxBodySize
func WithMaxBodySize(size int64) Option {
	return func(s *Server) error {
		s.maxBodySize = size
		return nil
	}
}

// WithGatherer serves the metrics of gatherer on /metrics. Without it the
// default prometheus gatherer is served.
func WithGatherer(gatherer prom.Gatherer) Option {
	return func(s *Server) error {
		s.gatherer = gatherer
		return nil
	}
}

// WithHealthChecker adds a checker to /healthz
func WithHealthChecker(component string, checker healthz.HealthChecker) Option {
	return func(s *Server) error {
		return s.health.RegisterChecker(component, checker)
	}
}

// New returns a Server for gw
func New(gw Gateway, opts ...Option) (*Server, error) {
	s := &Server{
		gw:          gw,
		maxBodySize: DefaultMaxBodySize,
		gatherer:    prom.DefaultGatherer,
		health:      healthz.NewHealthHandler(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Router returns the routes of the server
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(http.NotFound)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(handlers.CORS(handlers.AllowedHeaders(allowedCORSHeaders)))

	api.HandleFunc("/enroll/admin", s.enrollAdmin).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/enroll/user", s.enrollUser).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/ledger/addaccount", s.addAccount).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/ledger/transfer", s.transfer).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/ledger/query", s.query).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/ledger/accounts", s.accounts).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/ledger/transactions/{"+paramTxID+"}", s.transaction).Methods(http.MethodGet, http.MethodOptions)

	r.Handle("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

// Handler returns the router wrapped with panic recovery and the request
// body size limit
func (s *Server) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))
	return recovery(http.MaxBytesHandler(s.Router(), s.maxBodySize))
}

// HTTPServer returns an http.Server serving the API on addr
func (s *Server) HTTPServer(addr string) http.Server {
	return http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: time.Second,
		// a submit waits for its commit event
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

// HealthCheckerFunc adapts a function to healthz.HealthChecker
type HealthCheckerFunc func(context.Context) error

// HealthCheck calls f
func (f HealthCheckerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(args ...interface{}) {
	logger.Error(args...)
}
