/**
 * @description
 * This file contains the HTTP handlers for the registry, ledger, and cash
 * endpoints, plus the shared response helpers and the sentinel-error to HTTP
 * status mapping used by every handler file. Handlers parse requests, call
 * the application service, and translate the outcome; no business rules live
 * here.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http, strconv: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: Service logic, models, errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Abbas-Dev-786/securitifi/internal/app"
	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SettlementHandlers holds the application service that handlers will use.
type SettlementHandlers struct {
	service *app.Service
}

// NewSettlementHandlers creates a new instance of SettlementHandlers.
func NewSettlementHandlers(service *app.Service) *SettlementHandlers {
	return &SettlementHandlers{service: service}
}

// writeJSON is a helper for writing JSON responses.
func (h *SettlementHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *SettlementHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the service's sentinel errors onto HTTP statuses.
func (h *SettlementHandlers) writeServiceError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnauthorized):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down and try again.")
	case errors.Is(err, store.ErrAssetNotFound),
		errors.Is(err, store.ErrPositionNotFound),
		errors.Is(err, store.ErrRentPoolNotFound),
		errors.Is(err, store.ErrTransferNotFound),
		errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrUnknownDestination):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidState),
		errors.Is(err, store.ErrAssetPaused),
		errors.Is(err, store.ErrAssetUnverified),
		errors.Is(err, store.ErrPositionHealthy),
		errors.Is(err, store.ErrNothingToDistribute):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInsufficientBalance),
		errors.Is(err, store.ErrInsufficientCollateral),
		errors.Is(err, store.ErrOverRepayment):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrStaleData):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("level=error component=api endpoint=%s msg=\"unhandled service error\" err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "An internal error occurred")
	}
}

// caller extracts the authenticated account id, writing the error response
// itself when the middleware did not run.
func (h *SettlementHandlers) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	accountID, ok := GetCallerAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get account ID from context")
		return uuid.Nil, false
	}
	return accountID, true
}

// assetIDParam parses the {assetID} URL parameter.
func (h *SettlementHandlers) assetIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	assetID, err := strconv.ParseInt(chi.URLParam(r, "assetID"), 10, 64)
	if err != nil || assetID <= 0 {
		h.writeError(w, http.StatusBadRequest, "assetID must be a positive integer")
		return 0, false
	}
	return assetID, true
}

// --- Registry handlers ---

// SubmitAssetHandler handles POST /registry/assets.
func (h *SettlementHandlers) SubmitAssetHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.SubmitAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	asset, err := h.service.SubmitAsset(r.Context(), ownerID, req)
	if err != nil {
		h.writeServiceError(w, "submit_asset", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, asset)
}

// GetAssetHandler handles GET /registry/assets/{assetID}.
func (h *SettlementHandlers) GetAssetHandler(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	asset, err := h.service.GetAsset(r.Context(), assetID)
	if err != nil {
		h.writeServiceError(w, "get_asset", err)
		return
	}
	h.writeJSON(w, http.StatusOK, asset)
}

// ListAssetsHandler handles GET /registry/assets with an optional ?owner=
// filter.
func (h *SettlementHandlers) ListAssetsHandler(w http.ResponseWriter, r *http.Request) {
	var ownerFilter *uuid.UUID
	if raw := r.URL.Query().Get("owner"); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "owner must be a valid UUID")
			return
		}
		ownerFilter = &ownerID
	}
	assets, err := h.service.ListAssets(r.Context(), ownerFilter)
	if err != nil {
		h.writeServiceError(w, "list_assets", err)
		return
	}
	h.writeJSON(w, http.StatusOK, assets)
}

// VerifyAssetHandler handles POST /registry/assets/{assetID}/verify.
func (h *SettlementHandlers) VerifyAssetHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	asset, err := h.service.VerifyAsset(r.Context(), callerID, assetID)
	if err != nil {
		h.writeServiceError(w, "verify_asset", err)
		return
	}
	h.writeJSON(w, http.StatusOK, asset)
}

// RejectAssetHandler handles POST /registry/assets/{assetID}/reject.
func (h *SettlementHandlers) RejectAssetHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.RejectAsset(r.Context(), callerID, assetID); err != nil {
		h.writeServiceError(w, "reject_asset", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// PauseAssetHandler handles POST /registry/assets/{assetID}/pause.
func (h *SettlementHandlers) PauseAssetHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.PauseAsset(r.Context(), callerID, assetID); err != nil {
		h.writeServiceError(w, "pause_asset", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// ResumeAssetHandler handles POST /registry/assets/{assetID}/resume.
func (h *SettlementHandlers) ResumeAssetHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.ResumeAsset(r.Context(), callerID, assetID); err != nil {
		h.writeServiceError(w, "resume_asset", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// RecheckReservesHandler handles POST /registry/assets/{assetID}/recheck-reserves.
func (h *SettlementHandlers) RecheckReservesHandler(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	asset, err := h.service.RecheckReserves(r.Context(), assetID)
	if err != nil {
		h.writeServiceError(w, "recheck_reserves", err)
		return
	}
	h.writeJSON(w, http.StatusOK, asset)
}

// --- Ledger handlers ---

// TransferHandler handles POST /ledger/transfer.
func (h *SettlementHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.Transfer(r.Context(), callerID, req); err != nil {
		h.writeServiceError(w, "transfer", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

// BatchTransferHandler handles POST /ledger/transfer/batch.
func (h *SettlementHandlers) BatchTransferHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.BatchTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.BatchTransfer(r.Context(), callerID, req); err != nil {
		h.writeServiceError(w, "batch_transfer", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

// SetApprovalHandler handles POST /ledger/approvals.
func (h *SettlementHandlers) SetApprovalHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.SetApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.SetApproval(r.Context(), ownerID, req); err != nil {
		h.writeServiceError(w, "set_approval", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"approved": req.Approved})
}

// BalanceHandler handles GET /ledger/balances?account=&asset=.
func (h *SettlementHandlers) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.URL.Query().Get("account"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "account must be a valid UUID")
		return
	}
	assetID, err := strconv.ParseInt(r.URL.Query().Get("asset"), 10, 64)
	if err != nil || assetID <= 0 {
		h.writeError(w, http.StatusBadRequest, "asset must be a positive integer")
		return
	}
	balance, err := h.service.BalanceOf(r.Context(), accountID, assetID)
	if err != nil {
		h.writeServiceError(w, "balance_of", err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.BalanceEntry{AccountID: accountID, AssetID: assetID, Amount: balance})
}

// BatchBalanceHandler handles POST /ledger/balances/batch.
func (h *SettlementHandlers) BatchBalanceHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Queries []domain.BalanceQuery `json:"queries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	balances, err := h.service.BalanceOfBatch(r.Context(), req.Queries)
	if err != nil {
		h.writeServiceError(w, "balance_of_batch", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]int64{"balances": balances})
}

// TotalSupplyHandler handles GET /ledger/supply/{assetID}.
func (h *SettlementHandlers) TotalSupplyHandler(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	supply, err := h.service.TotalSupply(r.Context(), assetID)
	if err != nil {
		h.writeServiceError(w, "total_supply", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"asset_id": assetID, "total_supply": supply})
}

// --- Cash handlers ---

// DepositCashHandler handles POST /cash/deposit.
func (h *SettlementHandlers) DepositCashHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.CashMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.DepositCash(r.Context(), accountID, req.Amount); err != nil {
		h.writeServiceError(w, "deposit_cash", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deposited"})
}

// WithdrawCashHandler handles POST /cash/withdraw.
func (h *SettlementHandlers) WithdrawCashHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.CashMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.WithdrawCash(r.Context(), accountID, req.Amount); err != nil {
		h.writeServiceError(w, "withdraw_cash", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

// CashBalanceHandler handles GET /cash/balance.
func (h *SettlementHandlers) CashBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.caller(w, r)
	if !ok {
		return
	}
	balance, err := h.service.CashBalance(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, "cash_balance", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"account_id": accountID, "balance": balance})
}
