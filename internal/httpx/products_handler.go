package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/winnerbanjo/nile-collective/internal/orders"
)

type ProductsHandler struct {
	Products *orders.ProductRepo
	Reviews  *orders.ReviewRepo
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/products/{id}/reviews", h.listReviews)
	r.Post("/products/{id}/reviews", h.createReview)
	r.Put("/reviews/{id}/approve", h.approveReview)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Products.List(ctx)
	if err != nil {
		errJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p orders.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		errJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	if p.Name == "" || p.Price <= 0 {
		errJSON(w, http.StatusBadRequest, "name and a positive price are required")
		return
	}
	for _, v := range p.Variants {
		if v.Stock < 0 {
			errJSON(w, http.StatusBadRequest, "variant stock cannot be negative")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Create(ctx, &p); err != nil {
		errJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrProductNotFound) {
		errJSON(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		errJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// only approved reviews are public
	rs, err := h.Reviews.ListApproved(ctx, chi.URLParam(r, "id"))
	if err != nil {
		errJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *ProductsHandler) createReview(w http.ResponseWriter, r *http.Request) {
	var rv orders.Review
	if err := json.NewDecoder(r.Body).Decode(&rv); err != nil {
		errJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	rv.ProductID = chi.URLParam(r, "id")
	if rv.Name == "" || rv.Rating < 1 || rv.Rating > 5 {
		errJSON(w, http.StatusBadRequest, "name and a rating between 1 and 5 are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Reviews.Create(ctx, &rv); err != nil {
		errJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *ProductsHandler) approveReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err := h.Reviews.Approve(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrReviewNotFound) {
		errJSON(w, http.StatusNotFound, "review not found")
		return
	}
	if err != nil {
		errJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"approved": true})
}
