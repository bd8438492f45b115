package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"medeasy/pos/domain"
	"medeasy/pos/internal/pos"
)

type saleRequest struct {
	InvoiceID   string           `json:"invoiceId" validate:"required"`
	MedicineID  int64            `json:"medicineId" validate:"required"`
	Quantity    int64            `json:"quantity"`
	PatientName string           `json:"patientName"`
	Discount    *decimal.Decimal `json:"discount"`
}

func (h *Handler) addSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sale, err := h.svc.RecordSaleLine(r.Context(), tenantID(r), pos.SaleLineInput{
		InvoiceID:   req.InvoiceID,
		PatientName: req.PatientName,
		CartLine: pos.CartLine{
			MedicineID: req.MedicineID,
			Quantity:   req.Quantity,
			Discount:   req.Discount,
		},
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

type checkoutItem struct {
	MedicineID int64            `json:"medicineId" validate:"required"`
	Quantity   int64            `json:"quantity"`
	Discount   *decimal.Decimal `json:"discount"`
}

type checkoutRequest struct {
	InvoiceID   string         `json:"invoiceId"`
	PatientName string         `json:"patientName"`
	Items       []checkoutItem `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in := pos.CheckoutInput{InvoiceID: req.InvoiceID, PatientName: req.PatientName}
	for _, item := range req.Items {
		in.Items = append(in.Items, pos.CartLine{
			MedicineID: item.MedicineID,
			Quantity:   item.Quantity,
			Discount:   item.Discount,
		})
	}
	invoice, err := h.svc.Checkout(r.Context(), tenantID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, invoice)
}

func (h *Handler) salesHistory(w http.ResponseWriter, r *http.Request) {
	lines, err := h.svc.SalesHistory(r.Context(), tenantID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lines)
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.svc.Invoice(r.Context(), tenantID(r), chi.URLParam(r, "invoiceId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}

type returnRequest struct {
	SaleID    int64 `json:"saleId" validate:"required"`
	ReturnQty int64 `json:"returnQty"`
}

type returnResponse struct {
	Message       string           `json:"message"`
	RefundAmount  decimal.Decimal  `json:"refundAmount"`
	StockRestored bool             `json:"stockRestored"`
	Sale          *domain.SaleLine `json:"sale"`
}

func (h *Handler) processReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.svc.ProcessReturn(r.Context(), tenantID(r), req.SaleID, req.ReturnQty)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, returnResponse{
		Message:       "Return processed successfully",
		RefundAmount:  res.RefundAmount,
		StockRestored: res.StockRestored,
		Sale:          res.Sale,
	})
}

func (h *Handler) salesChart(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.SalesChart(r.Context(), tenantID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, points)
}
