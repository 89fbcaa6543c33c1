// Package handlers implements the shop's HTTP endpoints.
package handlers

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/view"
	"go.uber.org/zap"
)

const (
	checkoutCookie = "checkout"
	customerCookie = "customer"

	// customer data is remembered for two years when asked to
	rememberFor = 2 * 365 * 24 * time.Hour
)

func render(w http.ResponseWriter, r *http.Request, log *zap.Logger, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		log.Error("render template", zap.String("template", name), zap.Error(err))
	}
}

func serverError(w http.ResponseWriter, r *http.Request, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusInternalServerError, "server_error", nil)
		return
	}
	render(w, r, log, http.StatusInternalServerError, "error.html", map[string]any{"Code": "server_error"})
}

func notFound(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	render(w, r, log, http.StatusNotFound, "error.html", map[string]any{"Code": "not_found"})
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// checkoutID returns the verified checkout session id from the request cookie.
func checkoutID(r *http.Request) string {
	c, err := r.Cookie(checkoutCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	id, ok := auth.Verify(c.Value)
	if !ok {
		return ""
	}
	return id
}

func setCheckoutID(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     checkoutCookie,
		Value:    auth.Sign(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCheckoutID(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: checkoutCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// rememberCustomer stores the delivery data and payment choice in a signed
// long-lived cookie.
func rememberCustomer(w http.ResponseWriter, c models.Customer, payment string) {
	v := url.Values{}
	v.Set("city", c.City)
	v.Set("street", c.Street)
	v.Set("house_number", c.HouseNumber)
	v.Set("flat_number", c.FlatNumber)
	v.Set("phone", c.Phone)
	v.Set("email", c.Email)
	v.Set("payment_method", payment)
	http.SetCookie(w, &http.Cookie{
		Name:     customerCookie,
		Value:    auth.Sign(base64.RawURLEncoding.EncodeToString([]byte(v.Encode()))),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(rememberFor),
	})
}

func forgetCustomer(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: customerCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// rememberedCustomer reads the cookie written by rememberCustomer. Comments
// are never remembered.
func rememberedCustomer(r *http.Request) (models.Customer, string, bool) {
	c, err := r.Cookie(customerCookie)
	if err != nil {
		return models.Customer{}, "", false
	}
	signed, ok := auth.Verify(c.Value)
	if !ok {
		return models.Customer{}, "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(signed)
	if err != nil {
		return models.Customer{}, "", false
	}
	v, err := url.ParseQuery(string(raw))
	if err != nil {
		return models.Customer{}, "", false
	}
	return models.Customer{
		City:        v.Get("city"),
		Street:      v.Get("street"),
		HouseNumber: v.Get("house_number"),
		FlatNumber:  v.Get("flat_number"),
		Phone:       v.Get("phone"),
		Email:       v.Get("email"),
	}, v.Get("payment_method"), true
}
