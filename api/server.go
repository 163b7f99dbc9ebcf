package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/api/handlers"
)

type Server struct {
	vh         handlers.VaultHandler
	oh         handlers.OrderHandler
	wh         handlers.WalletHandler
	listenAddr string
	logger     *zap.Logger
}

func NewServer(
	vh handlers.VaultHandler,
	oh handlers.OrderHandler,
	wh handlers.WalletHandler,
	address string,
	logger *zap.Logger,
) Server {
	return Server{
		vh:         vh,
		oh:         oh,
		wh:         wh,
		listenAddr: address,
		logger:     logger,
	}
}

func (s Server) Start() {
	router := mux.NewRouter()
	router.Use(s.requestID)

	// Routes for vaults
	router.HandleFunc("/vaults", s.vh.ListVaults).Methods("GET")
	router.HandleFunc("/vaults/{address}", s.vh.GetVault).Methods("GET")

	// Routes for orders
	router.HandleFunc("/orders", s.oh.ListOrders).Methods("GET")
	router.HandleFunc("/orders", s.oh.CreateOrder).Methods("POST")
	router.HandleFunc("/orders/{address}", s.oh.GetOrder).Methods("GET")
	router.HandleFunc("/orders/{address}/close", s.oh.CloseOrder).Methods("POST")
	router.HandleFunc("/matches", s.oh.MatchOrders).Methods("POST")

	// Routes for fees
	router.HandleFunc("/fees/{vault}", s.vh.GetFees).Methods("GET")
	router.HandleFunc("/fees/{vault}/withdraw", s.vh.WithdrawFees).Methods("POST")

	// Routes for token wallets
	router.HandleFunc("/wallets/{symbol}/{owner}", s.wh.GetWallet).Methods("GET")

	// Start server
	s.logger.Info("Starting server", zap.String("address", s.listenAddr))
	s.logger.Fatal("Server failed to start", zap.Error(http.ListenAndServe(s.listenAddr, router)))
}

// requestID tags every request with a correlation id for the access log.
func (s Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		s.logger.Debug("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r)
	})
}
