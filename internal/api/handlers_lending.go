/**
 * @description
 * HTTP handlers for the collateralized lending endpoints.
 */

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DepositCollateralHandler handles POST /lending/collateral.
func (h *SettlementHandlers) DepositCollateralHandler(w http.ResponseWriter, r *http.Request) {
	borrowerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.DepositCollateralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.DepositCollateral(r.Context(), borrowerID, req); err != nil {
		h.writeServiceError(w, "deposit_collateral", err)
		return
	}
	position, err := h.service.GetPosition(r.Context(), borrowerID)
	if err != nil {
		h.writeServiceError(w, "deposit_collateral", err)
		return
	}
	h.writeJSON(w, http.StatusOK, position)
}

// BorrowHandler handles POST /lending/borrow.
func (h *SettlementHandlers) BorrowHandler(w http.ResponseWriter, r *http.Request) {
	borrowerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.Borrow(r.Context(), borrowerID, req); err != nil {
		h.writeServiceError(w, "borrow", err)
		return
	}
	position, err := h.service.GetPosition(r.Context(), borrowerID)
	if err != nil {
		h.writeServiceError(w, "borrow", err)
		return
	}
	h.writeJSON(w, http.StatusOK, position)
}

// RepayHandler handles POST /lending/repay.
func (h *SettlementHandlers) RepayHandler(w http.ResponseWriter, r *http.Request) {
	borrowerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.RepayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.Repay(r.Context(), borrowerID, req); err != nil {
		h.writeServiceError(w, "repay", err)
		return
	}
	position, err := h.service.GetPosition(r.Context(), borrowerID)
	if err != nil {
		h.writeServiceError(w, "repay", err)
		return
	}
	h.writeJSON(w, http.StatusOK, position)
}

// LiquidateHandler handles POST /lending/liquidate.
func (h *SettlementHandlers) LiquidateHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LiquidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.BorrowerID == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, "borrower_id is required")
		return
	}
	cleared, err := h.service.Liquidate(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "liquidate", err)
		return
	}
	h.writeJSON(w, http.StatusOK, cleared)
}

// GetPositionHandler handles GET /lending/positions/{borrowerID}.
func (h *SettlementHandlers) GetPositionHandler(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := uuid.Parse(chi.URLParam(r, "borrowerID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "borrowerID must be a valid UUID")
		return
	}
	position, err := h.service.GetPosition(r.Context(), borrowerID)
	if err != nil {
		h.writeServiceError(w, "get_position", err)
		return
	}
	h.writeJSON(w, http.StatusOK, position)
}

// MaxBorrowHandler handles GET /lending/max-borrow?asset=&collateral=.
func (h *SettlementHandlers) MaxBorrowHandler(w http.ResponseWriter, r *http.Request) {
	assetID, err := strconv.ParseInt(r.URL.Query().Get("asset"), 10, 64)
	if err != nil || assetID <= 0 {
		h.writeError(w, http.StatusBadRequest, "asset must be a positive integer")
		return
	}
	collateral, err := strconv.ParseInt(r.URL.Query().Get("collateral"), 10, 64)
	if err != nil || collateral < 0 {
		h.writeError(w, http.StatusBadRequest, "collateral must be a non-negative integer")
		return
	}
	max, err := h.service.CalculateMaxBorrow(r.Context(), assetID, collateral)
	if err != nil {
		h.writeServiceError(w, "max_borrow", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"asset_id": assetID, "collateral": collateral, "max_borrow": max})
}
