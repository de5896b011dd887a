/**
 * @description
 * HTTP handlers for the rent distribution vault endpoints.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
)

// DepositRentHandler handles POST /rent/deposit.
func (h *SettlementHandlers) DepositRentHandler(w http.ResponseWriter, r *http.Request) {
	depositorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.DepositRentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.DepositRent(r.Context(), depositorID, req); err != nil {
		h.writeServiceError(w, "deposit_rent", err)
		return
	}
	pool, err := h.service.GetRentPool(r.Context(), req.AssetID)
	if err != nil {
		h.writeServiceError(w, "deposit_rent", err)
		return
	}
	h.writeJSON(w, http.StatusOK, pool)
}

// GetRentPoolHandler handles GET /rent/pools/{assetID}.
func (h *SettlementHandlers) GetRentPoolHandler(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	pool, err := h.service.GetRentPool(r.Context(), assetID)
	if err != nil {
		h.writeServiceError(w, "get_rent_pool", err)
		return
	}
	h.writeJSON(w, http.StatusOK, pool)
}

// CheckUpkeepHandler handles GET /rent/pools/{assetID}/upkeep.
func (h *SettlementHandlers) CheckUpkeepHandler(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	due, err := h.service.CheckUpkeep(r.Context(), assetID)
	if err != nil {
		h.writeServiceError(w, "check_upkeep", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"asset_id": assetID, "upkeep_needed": due})
}

// DistributeRentHandler handles POST /rent/pools/{assetID}/distribute.
func (h *SettlementHandlers) DistributeRentHandler(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	result, err := h.service.Distribute(r.Context(), assetID)
	if err != nil {
		h.writeServiceError(w, "distribute_rent", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
