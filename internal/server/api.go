package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"storefront/web/internal/cart"
	"storefront/web/internal/client"
	"storefront/web/internal/domain"
	"storefront/web/internal/routes"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

type cartResponse struct {
	Items domain.CartItems `json:"cartItems"`
	Count int              `json:"count"`
}

type cartRequest struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User domain.User `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warnf("⚠️ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// isForm reports whether the request came from an HTML form; those get a
// redirect instead of a JSON body.
func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ready":  s.deps.Catalog.Ready(),
		"auth":   s.deps.Auth.State().String(),
		"routes": s.Table().Len(),
	})
}

func (s *Server) listRoutes(w http.ResponseWriter, _ *http.Request) {
	table := s.Table()
	writeJSON(w, http.StatusOK, map[string]any{
		"routes":     table.Descriptors(),
		"collisions": table.Collisions,
		"skipped":    table.Skipped,
	})
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request) {
	items := s.deps.Cart.Snapshot()
	writeJSON(w, http.StatusOK, cartResponse{Items: items, Count: items.Count()})
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	product, ok := s.deps.Catalog.Snapshot().Products[productID]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown product")
		return
	}

	var req cartRequest
	form := isForm(r)
	if form {
		req.Size = r.FormValue("size")
		req.Quantity, _ = strconv.Atoi(r.FormValue("quantity"))
	} else if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry := domain.CartEntry{
		Name:     product.Name,
		Price:    product.Price,
		Size:     req.Size,
		Quantity: req.Quantity,
	}
	if len(product.Images) > 0 {
		entry.Image = product.Images[0]
	}

	if err := s.deps.Cart.Add(r.Context(), productID, entry); err != nil {
		log.Errorf("❌ Failed to add %s to cart: %v", productID, err)
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}

	if form {
		http.Redirect(w, r, routes.PathCart, http.StatusSeeOther)
		return
	}
	s.getCart(w, r)
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req cartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.cartResult(w, r, productID, s.deps.Cart.UpdateQuantity(r.Context(), productID, req.Quantity))
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	s.cartResult(w, r, productID, s.deps.Cart.Remove(r.Context(), productID))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.cartResult(w, r, "", s.deps.Cart.Clear(r.Context()))
}

func (s *Server) cartResult(w http.ResponseWriter, r *http.Request, productID string, err error) {
	switch {
	case err == nil:
		s.getCart(w, r)
	case errors.Is(err, cart.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not in cart")
	default:
		log.Errorf("❌ Failed to update cart %s: %v", productID, err)
		writeError(w, http.StatusInternalServerError, "failed to save cart")
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	form := isForm(r)
	if form {
		creds.Email = r.FormValue("email")
		creds.Password = r.FormValue("password")
	} else if err := decode(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.deps.Sessions.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		s.sessionError(w, "log in", err)
		return
	}

	s.deps.Auth.SignIn(*user)
	if form {
		http.Redirect(w, r, routes.PathAccount, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: *user})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg client.Registration
	form := isForm(r)
	if form {
		reg = client.Registration{
			FirstName: r.FormValue("first_name"),
			LastName:  r.FormValue("last_name"),
			Email:     r.FormValue("email"),
			Password:  r.FormValue("password"),
		}
	} else if err := decode(r, &reg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.deps.Sessions.Register(r.Context(), reg)
	if err != nil {
		s.sessionError(w, "register", err)
		return
	}

	s.deps.Auth.SignIn(*user)
	if form {
		http.Redirect(w, r, routes.PathAccount, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{User: *user})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Logout(r.Context()); err != nil {
		log.Warnf("⚠️ Backend logout failed, signing out locally: %v", err)
	}
	s.deps.Auth.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionError(w http.ResponseWriter, action string, err error) {
	var statusErr *client.StatusError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError:
		writeError(w, statusErr.Code, "rejected by backend")
	default:
		log.Errorf("❌ Failed to %s: %v", action, err)
		writeError(w, http.StatusBadGateway, "backend unavailable")
	}
}
