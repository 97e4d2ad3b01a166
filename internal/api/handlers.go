package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/inventory-dashboard/internal/domain"
	"github.com/example/inventory-dashboard/internal/inventory"
	"github.com/example/inventory-dashboard/internal/order"
)

type Handlers struct {
	inventory *inventory.Service
	orders    *order.Service
}

func NewHandlers(inventorySvc *inventory.Service, orderSvc *order.Service) *Handlers {
	return &Handlers{
		inventory: inventorySvc,
		orders:    orderSvc,
	}
}

// Inventory Handlers

func (h *Handlers) GetInventory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := inventory.Filter{
		Category: query.Get("category"),
		Name:     query.Get("name"),
	}
	if value := query.Get("available"); value != "" {
		available := value == "true"
		filter.Available = &available
	}

	items, err := h.inventory.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handlers) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/inventory/", "/update")

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		respondMessage(w, http.StatusBadRequest, "Please provide a valid quantity")
		return
	}

	item, err := h.inventory.SetQuantity(r.Context(), id, *req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Inventory updated successfully",
		"item":    item,
	})
}

// Order Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := order.Filter{
		Status:     query.Get("status"),
		SearchTerm: query.Get("searchTerm"),
	}
	if start, ok := parseDate(query.Get("startDate")); ok {
		filter.Start = &start
	}
	if end, ok := parseDate(query.Get("endDate")); ok {
		filter.End = &end
	}

	page := parseIntDefault(query.Get("page"), 1)
	limit := parseIntDefault(query.Get("limit"), order.DefaultPageSize)

	result, err := h.orders.List(r.Context(), filter, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customer order.CustomerInput `json:"customer"`
		Items    []order.ItemInput   `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.orders.Create(r.Context(), req.Customer, req.Items)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"order":   created,
	})
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/orders/", "/cancel")

	cancelled, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Order cancelled successfully",
		"order":   cancelled,
	})
}

func (h *Handlers) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/orders/", "/payment")

	var req struct {
		Amount        float64 `json:"amount"`
		PaymentMethod string  `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	paid, err := h.orders.ConfirmPayment(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Payment confirmed and inventory updated",
		"order":   paid,
		"paymentDetails": map[string]any{
			"amount":        req.Amount,
			"paymentMethod": req.PaymentMethod,
		},
	})
}

func (h *Handlers) RefundOrder(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/orders/", "/refund")

	refunded, err := h.orders.Refund(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Order refunded and inventory updated",
		"order":   refunded,
	})
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondServiceError maps the error taxonomy to HTTP statuses: 404 for
// missing records, 400 for validation and illegal transitions, 500 otherwise.
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusBadRequest
	}
	respondMessage(w, status, err.Error())
}

func pathParam(path, prefix, suffix string) string {
	return strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseIntDefault(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
