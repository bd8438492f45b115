package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"medeasy/pos/domain"
	"medeasy/pos/internal/pos"
	"medeasy/pos/internal/seed"
)

const maxImportBytes = 5 << 20

type medicineRequest struct {
	Name       string           `json:"name" validate:"required"`
	Category   string           `json:"category" validate:"required"`
	ExpiryDate string           `json:"expiryDate" validate:"required"`
	Quantity   *int64           `json:"quantity" validate:"required"`
	Price      *decimal.Decimal `json:"price" validate:"required"`
	Discount   *decimal.Decimal `json:"discount"`
}

func (req medicineRequest) input() (pos.MedicineInput, error) {
	expiry, err := domain.ParseDate(req.ExpiryDate)
	if err != nil {
		return pos.MedicineInput{}, err
	}
	in := pos.MedicineInput{
		Name:       req.Name,
		Category:   req.Category,
		ExpiryDate: expiry,
		Quantity:   *req.Quantity,
		Price:      *req.Price,
		Discount:   decimal.Zero,
	}
	if req.Discount != nil {
		in.Discount = *req.Discount
	}
	return in, nil
}

func (h *Handler) addMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, r, err)
		return
	}
	med, err := h.svc.AddMedicine(r.Context(), tenantID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, med)
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	meds, err := h.svc.ListMedicines(r.Context(), tenantID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meds)
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, r, err)
		return
	}
	med, err := h.svc.UpdateMedicine(r.Context(), tenantID(r), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, med)
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.svc.DeleteMedicine(r.Context(), tenantID(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Medicine deleted")
}

// importMedicines takes a CSV body with a header row.
func (h *Handler) importMedicines(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	res, err := seed.ImportStock(r.Context(), body, h.svc, tenantID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	meds, err := h.svc.LowStock(r.Context(), tenantID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meds)
}

func (h *Handler) expiringSoon(w http.ResponseWriter, r *http.Request) {
	meds, err := h.svc.ExpiringSoon(r.Context(), tenantID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meds)
}
