// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/nftstake/api/accounts"
	"github.com/vechain/nftstake/api/clock"
	"github.com/vechain/nftstake/api/events"
	"github.com/vechain/nftstake/api/invocations"
	"github.com/vechain/nftstake/api/middleware"
	"github.com/vechain/nftstake/api/staking"
	"github.com/vechain/nftstake/api/subscriptions"
	"github.com/vechain/nftstake/api/utils"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/log"
	"github.com/vechain/nftstake/metrics"
)

var logger = log.WithContext("pkg", "api")

const defaultEventsLimit = 1000

type Options struct {
	AllowedOrigins       string
	EventsLimit          uint64
	EnableMetrics        bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
}

// New return api router and a func closing the open subscriptions.
func New(ledger *chain.Ledger, opts Options) (http.Handler, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.EventsLimit == 0 {
		opts.EventsLimit = defaultEventsLimit
	}

	router := mux.NewRouter()

	router.Path("/").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) error {
			gene := ledger.Genesis()
			return utils.WriteJSON(w, utils.M{
				"network": gene.Name(),
				"genesis": gene.ID().String(),
				"staker":  ledger.StakerProgramID(),
				"token":   ledger.TokenProgramID(),
				"clock":   ledger.Clock(),
			})
		}))

	accounts.New(ledger).
		Mount(router, "/accounts")
	staking.New(ledger).
		Mount(router)
	events.New(ledger, opts.EventsLimit).
		Mount(router, "/events")
	invocations.New(ledger).
		Mount(router, "/invocations")
	clock.New(ledger).
		Mount(router, "/clock")
	subs := subscriptions.New(ledger, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Path("/metrics").Methods(http.MethodGet).Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)
	}
	return handler, subs.Close
}
