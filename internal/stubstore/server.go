package stubstore

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/logger"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

// Server serves the storefront wire contract from an in-memory Store.
type Server struct {
	store *Store
	logg  *logger.Logger
}

// NewServer wires the reference backend over the given store.
func NewServer(store *Store, logg *logger.Logger) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("stubstore: store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("stubstore: logger is required")
	}
	return &Server{store: store, logg: logg}, nil
}

// Handler returns the HTTP handler for the stub's API surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		recovererMiddleware(s.logg),
		requestIDMiddleware(s.logg),
		loggingMiddleware(s.logg),
	)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.handleProducts)
		r.Get("/cart", s.handleCart)
		r.Post("/add_cart", s.handleAddCart)
		r.Delete("/cart/{cartID}", s.handleDeleteCartEntry)
		r.Post("/checkout", s.handleCheckout)
		r.Get("/orders", s.handleOrders)
		r.Delete("/orders/{orderID}", s.handleDeleteOrder)
	})
	return r
}

type addCartBody struct {
	Account   string `json:"account" validate:"required"`
	ProductID int64  `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type checkoutBody struct {
	Account       string                  `json:"account" validate:"required"`
	SelectedItems []storeapi.CheckoutPair `json:"selected_items" validate:"required,min=1"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), s.logg, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), s.logg, w, http.StatusOK, s.store.Products())
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromQuery(r)
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	writeJSON(r.Context(), s.logg, w, http.StatusOK, s.store.Cart(account))
}

func (s *Server) handleAddCart(w http.ResponseWriter, r *http.Request) {
	var body addCartBody
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	if err := s.store.AddToCart(body.Account, body.ProductID, body.Quantity); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	writeAck(r.Context(), s.logg, w, "added to cart")
}

func (s *Server) handleDeleteCartEntry(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromQuery(r)
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	cartID, err := idFromPath(r, "cartID")
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	if err := s.store.DeleteCartEntry(account, cartID); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	writeAck(r.Context(), s.logg, w, "removed")
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var body checkoutBody
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	if err := s.store.Checkout(body.Account, body.SelectedItems); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	writeAck(r.Context(), s.logg, w, "checkout complete")
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromQuery(r)
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	writeJSON(r.Context(), s.logg, w, http.StatusOK, s.store.Orders(account))
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromQuery(r)
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	orderID, err := idFromPath(r, "orderID")
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	if err := s.store.DeleteOrder(account, orderID); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	writeAck(r.Context(), s.logg, w, "removed")
}

func accountFromQuery(r *http.Request) (string, error) {
	account := r.URL.Query().Get("account")
	if account == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	return account, nil
}

func idFromPath(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s", param))
	}
	return id, nil
}
