package api

import "net/http"

type demandRequest struct {
	MedicineName string `json:"medicineName" validate:"required"`
}

func (h *Handler) addDemand(w http.ResponseWriter, r *http.Request) {
	var req demandRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	demand, err := h.svc.AddDemand(r.Context(), tenantID(r), req.MedicineName)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, demand)
}

func (h *Handler) listDemands(w http.ResponseWriter, r *http.Request) {
	demands, err := h.svc.ListDemands(r.Context(), tenantID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, demands)
}

func (h *Handler) deleteDemand(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.svc.RemoveDemand(r.Context(), tenantID(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Demand removed")
}
