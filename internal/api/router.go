/**
 * @description
 * This file sets up the HTTP router for the settlement engine. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, panic recovery, timeouts, CORS, caller
 * identification, and the internal API key gate on service-to-service routes.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SettlementRoutes creates and returns the router for the settlement engine.
func SettlementRoutes(h *SettlementHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Account-Id", "X-Internal-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Read-only endpoints require no caller identity.
	r.Group(func(r chi.Router) {
		r.Get("/registry/assets", h.ListAssetsHandler)
		r.Get("/registry/assets/{assetID}", h.GetAssetHandler)
		r.Get("/ledger/balances", h.BalanceHandler)
		r.Post("/ledger/balances/batch", h.BatchBalanceHandler)
		r.Get("/ledger/supply/{assetID}", h.TotalSupplyHandler)
		r.Get("/lending/positions/{borrowerID}", h.GetPositionHandler)
		r.Get("/lending/max-borrow", h.MaxBorrowHandler)
		r.Get("/rent/pools/{assetID}", h.GetRentPoolHandler)
		r.Get("/rent/pools/{assetID}/upkeep", h.CheckUpkeepHandler)
		r.Get("/bridge/routes", h.ListRoutesHandler)
		r.Get("/bridge/transfers/{transferID}", h.GetTransferHandler)
	})

	// Mutating endpoints require the caller's account identity.
	r.Group(func(r chi.Router) {
		r.Use(CallerAccountMiddleware)

		r.Post("/registry/assets", h.SubmitAssetHandler)
		r.Post("/registry/assets/{assetID}/verify", h.VerifyAssetHandler)
		r.Post("/registry/assets/{assetID}/reject", h.RejectAssetHandler)
		r.Post("/registry/assets/{assetID}/pause", h.PauseAssetHandler)
		r.Post("/registry/assets/{assetID}/resume", h.ResumeAssetHandler)

		r.Post("/ledger/transfer", h.TransferHandler)
		r.Post("/ledger/transfer/batch", h.BatchTransferHandler)
		r.Post("/ledger/approvals", h.SetApprovalHandler)

		r.Post("/cash/deposit", h.DepositCashHandler)
		r.Post("/cash/withdraw", h.WithdrawCashHandler)
		r.Get("/cash/balance", h.CashBalanceHandler)

		r.Post("/lending/collateral", h.DepositCollateralHandler)
		r.Post("/lending/borrow", h.BorrowHandler)
		r.Post("/lending/repay", h.RepayHandler)
		r.Post("/lending/liquidate", h.LiquidateHandler)

		r.Post("/rent/deposit", h.DepositRentHandler)
		r.Post("/rent/pools/{assetID}/distribute", h.DistributeRentHandler)

		r.Post("/bridge/transfers", h.LockAndSendHandler)
		r.Post("/bridge/routes", h.RegisterRouteHandler)
	})

	// Service-to-service endpoints are guarded by the shared internal key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAPIKeyMiddleware(internalAPIKey))

		r.Post("/internal/registry/assets/{assetID}/recheck-reserves", h.RecheckReservesHandler)
	})

	return r
}
