package api

import (
	"net/http"

	_ "github.com/AlexZinkM/cb-transfer/docs"
	"github.com/AlexZinkM/cb-transfer/internal/handler"

	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(h *handler.SolanaHandler, metrics http.Handler, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	mux.Handle("/metrics", metrics)

	// Transfer
	mux.HandleFunc("/transfer-cb", h.TransferCB)

	// Account views
	mux.HandleFunc("/accounts/balance", h.GetBalance)
	mux.HandleFunc("/accounts/signatures", h.GetSignatures)
	mux.HandleFunc("/accounts/token-accounts", h.GetTokenAccounts)
	mux.HandleFunc("/accounts/visibility", h.Visibility)

	mux.HandleFunc("/operations", h.Operations)

	return requestLogger(mux, logger)
}
