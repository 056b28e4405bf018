package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/winnerbanjo/nile-collective/internal/orders"
	"github.com/winnerbanjo/nile-collective/internal/paystack"
	"github.com/winnerbanjo/nile-collective/internal/redisx"
)

type OrdersHandler struct {
	Service *orders.Service
	Redis   *redis.Client
}

type createOrderReq struct {
	UserID          string                 `json:"userId,omitempty"`
	Items           []orders.Item          `json:"items"`
	TotalAmount     int64                  `json:"totalAmount"`
	ShippingFee     int64                  `json:"shippingFee,omitempty"`
	ShippingDetails orders.ShippingDetails `json:"shippingDetails"`
	ReceiptURL      string                 `json:"receiptUrl,omitempty"`
}

type createOrderResp struct {
	OrderID string        `json:"orderId"`
	Order   *orders.Order `json:"order"`
}

type verifyReq struct {
	Reference string `json:"reference"`
	OrderID   string `json:"orderId"`
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Post("/orders/manual", h.createManualOrder)
	r.Post("/orders/verify", h.verifyPayment)
	r.Put("/orders/{id}/status", h.updateStatus)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/myorders", h.listMyOrders)
	r.Get("/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errJSON(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.CreateOrder(ctx, createInput(req))
	if err != nil {
		h.writeCreateError(w, err)
		return
	}
	h.cacheOrder(ctx, o)
	writeJSON(w, http.StatusCreated, createOrderResp{OrderID: o.ID, Order: o})
}

func (h *OrdersHandler) createManualOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errJSON(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.CreateManualOrder(ctx, createInput(req))
	if err != nil {
		h.writeCreateError(w, err)
		return
	}
	h.cacheOrder(ctx, o)
	writeJSON(w, http.StatusCreated, createOrderResp{OrderID: o.ID, Order: o})
}

// verifyPayment answers the client as soon as the gateway verdict is in. On
// success the response is flushed first and the status flip, stock decrement
// and emails run behind it; a crash in that window leaves the order pending
// although the client was told success.
func (h *OrdersHandler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Reference == "" || req.OrderID == "" {
		errJSON(w, http.StatusBadRequest, "reference and orderId are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	err := h.Service.VerifyPayment(ctx, req.OrderID, req.Reference)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		errJSON(w, http.StatusNotFound, "order not found")
	case errors.Is(err, paystack.ErrDeclined):
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "payment was not successful"})
	case err != nil:
		errJSON(w, http.StatusInternalServerError, "could not verify payment")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "payment verified"})
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		go func() {
			fctx, fcancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer fcancel()
			h.Service.FinalizePaid(fctx, req.OrderID, req.Reference)
			h.invalidateOrder(fctx, req.OrderID)
		}()
	}
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errJSON(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.UpdateStatus(ctx, id, req.Status)
	switch {
	case errors.Is(err, orders.ErrInvalidStatus):
		errJSON(w, http.StatusBadRequest, "invalid status")
	case errors.Is(err, orders.ErrNotFound):
		errJSON(w, http.StatusNotFound, "order not found")
	case err != nil:
		errJSON(w, http.StatusInternalServerError, err.Error())
	default:
		h.cacheOrder(ctx, o)
		writeJSON(w, http.StatusOK, o)
	}
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, id)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	o, err := h.Service.GetOrder(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		errJSON(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		errJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.cacheOrder(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Service.ListOrders(ctx)
	if err != nil {
		errJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		errJSON(w, http.StatusBadRequest, "missing userId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Service.ListUserOrders(ctx, userID)
	if err != nil {
		errJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNoItems),
		errors.Is(err, orders.ErrBadQuantity),
		errors.Is(err, orders.ErrInvalidTotal),
		errors.Is(err, orders.ErrMissingReceipt):
		errJSON(w, http.StatusBadRequest, err.Error())
	default:
		errJSON(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *OrdersHandler) cacheOrder(ctx context.Context, o *orders.Order) {
	if h.Redis == nil {
		return
	}
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) invalidateOrder(ctx context.Context, id string) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, id)).Err()
}

func createInput(req createOrderReq) orders.CreateInput {
	return orders.CreateInput{
		UserID:          req.UserID,
		Items:           req.Items,
		TotalAmount:     req.TotalAmount,
		ShippingFee:     req.ShippingFee,
		ShippingDetails: req.ShippingDetails,
		ReceiptURL:      req.ReceiptURL,
	}
}
