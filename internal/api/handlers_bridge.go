/**
 * @description
 * HTTP handlers for the cross-chain bridge endpoints: route configuration,
 * outbound lock-and-send, and transfer status lookups.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RegisterRouteHandler handles POST /bridge/routes.
func (h *SettlementHandlers) RegisterRouteHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.RegisterRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	route, err := h.service.RegisterRoute(r.Context(), callerID, req)
	if err != nil {
		h.writeServiceError(w, "register_route", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, route)
}

// ListRoutesHandler handles GET /bridge/routes.
func (h *SettlementHandlers) ListRoutesHandler(w http.ResponseWriter, r *http.Request) {
	routes, err := h.service.ListRoutes(r.Context())
	if err != nil {
		h.writeServiceError(w, "list_routes", err)
		return
	}
	h.writeJSON(w, http.StatusOK, routes)
}

// LockAndSendHandler handles POST /bridge/transfers.
func (h *SettlementHandlers) LockAndSendHandler(w http.ResponseWriter, r *http.Request) {
	senderID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.LockAndSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	transfer, err := h.service.LockAndSend(r.Context(), senderID, req)
	if err != nil {
		h.writeServiceError(w, "lock_and_send", err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, transfer)
}

// GetTransferHandler handles GET /bridge/transfers/{transferID}.
func (h *SettlementHandlers) GetTransferHandler(w http.ResponseWriter, r *http.Request) {
	transferID, err := uuid.Parse(chi.URLParam(r, "transferID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "transferID must be a valid UUID")
		return
	}
	transfer, err := h.service.GetTransfer(r.Context(), transferID)
	if err != nil {
		h.writeServiceError(w, "get_transfer", err)
		return
	}
	h.writeJSON(w, http.StatusOK, transfer)
}
