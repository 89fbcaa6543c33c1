// Package i18n holds the shop's message catalog and language negotiation.
package i18n

import (
	"context"

	"golang.org/x/text/language"
)

const (
	Polish  = "pl"
	English = "en"

	// Default is used whenever a language cannot be negotiated.
	Default = Polish
)

var matcher = language.NewMatcher([]language.Tag{language.Polish, language.English})

var messages = map[string]map[string]string{
	Polish: {
		"required":            "Pole wymagane",
		"too_long":            "Wartość jest za długa",
		"invalid_email":       "Niepoprawny adres e-mail",
		"invalid_phone":       "Niepoprawny numer telefonu",
		"invalid_choice":      "Niedozwolona wartość",
		"invalid":             "Niepoprawna wartość",
		"must_be_positive":    "Wartość musi być dodatnia",
		"invalid_amount":      "Niepoprawna kwota",
		"invalid_quantity":    "Niepoprawna ilość",
		"unknown_product":     "Nieznany produkt",
		"product_unavailable": "Produkt jest niedostępny",
		"invalid_field":       "Niepoprawne pole formularza",
		"empty_order":         "Zamówienie jest puste",
		"quantity_too_large":  "Zbyt duża ilość",
		"total_too_large":     "Wartość zamówienia jest zbyt duża",
		"invalid_credentials": "Niepoprawny login lub hasło",
		"checkout_expired":    "Sesja zamówienia wygasła, złóż zamówienie ponownie",
		"order_failed":        "Nie udało się złożyć zamówienia, spróbuj ponownie",
		"not_found":           "Nie znaleziono",
		"server_error":        "Wystąpił błąd serwera",
		"name_taken":          "Produkt o tej nazwie już istnieje",
		"invalid_image":       "Niepoprawny plik zdjęcia",
		"image_too_large":     "Zdjęcie ma zbyt duże wymiary",

		"payment.cash": "gotówka",
		"payment.card": "karta",
		"payment.blik": "BLIK",

		"shop.title":         "Sklep",
		"shop.order":         "Zamów",
		"shop.quantity":      "Ilość",
		"shop.price":         "Cena",
		"shop.unit":          "Jednostka",
		"shop.unavailable":   "niedostępny",
		"shop.next_day":      "dostawa od następnego dnia roboczego",
		"order.title":        "Potwierdzenie zamówienia",
		"order.total":        "Suma",
		"order.delivery":     "Data dostawy",
		"order.confirm":      "Potwierdzam zamówienie",
		"order.remember":     "Zapamiętaj moje dane",
		"summary.title":      "Dziękujemy za zamówienie",
		"summary.number":     "Numer zamówienia",
		"field.city":         "Miejscowość",
		"field.street":       "Ulica",
		"field.house_number": "Numer domu",
		"field.flat_number":  "Numer mieszkania",
		"field.phone":        "Telefon",
		"field.email":        "E-mail",
		"field.comments":     "Uwagi",
		"field.payment":      "Płatność",
		"field.name":         "Nazwa",
		"field.price":        "Cena (zł)",
		"field.unit":         "Jednostka",
		"field.photo":        "Zdjęcie",
		"field.available":    "Dostępny",
		"field.same_day":     "Dostawa tego samego dnia",
		"login.title":        "Logowanie",
		"login.username":     "Użytkownik",
		"login.password":     "Hasło",
		"login.submit":       "Zaloguj",
		"logout":             "Wyloguj",
		"seller.title":       "Panel sprzedawcy",
		"seller.products":    "Produkty",
		"seller.new_product": "Nowy produkt",
		"seller.orders":      "Zamówienia",
		"seller.save":        "Zapisz",
		"seller.delete":      "Usuń",
		"seller.photo":       "Zmień zdjęcie",
		"seller.paid":        "Opłacone",
		"seller.completed":   "Zrealizowane",
		"seller.today":       "Dostawa dziś",
		"seller.no_orders":   "Brak zamówień do realizacji",
	},
	English: {
		"required":            "Required",
		"too_long":            "Value is too long",
		"invalid_email":       "Invalid e-mail address",
		"invalid_phone":       "Invalid phone number",
		"invalid_choice":      "Value not allowed",
		"invalid":             "Invalid value",
		"must_be_positive":    "Must be positive",
		"invalid_amount":      "Invalid amount",
		"invalid_quantity":    "Invalid quantity",
		"unknown_product":     "Unknown product",
		"product_unavailable": "Product is unavailable",
		"invalid_field":       "Invalid form field",
		"empty_order":         "The order is empty",
		"quantity_too_large":  "Quantity too large",
		"total_too_large":     "The order total is too large",
		"invalid_credentials": "Invalid username or password",
		"checkout_expired":    "Your order session expired, please order again",
		"order_failed":        "Could not place the order, please try again",
		"not_found":           "Not found",
		"server_error":        "Server error",
		"name_taken":          "A product with this name already exists",
		"invalid_image":       "Invalid photo file",
		"image_too_large":     "The photo dimensions are too large",

		"payment.cash": "cash",
		"payment.card": "card",
		"payment.blik": "BLIK",

		"shop.title":         "Shop",
		"shop.order":         "Order",
		"shop.quantity":      "Quantity",
		"shop.price":         "Price",
		"shop.unit":          "Unit",
		"shop.unavailable":   "unavailable",
		"shop.next_day":      "delivered from the next working day",
		"order.title":        "Confirm your order",
		"order.total":        "Total",
		"order.delivery":     "Delivery date",
		"order.confirm":      "Confirm order",
		"order.remember":     "Remember my details",
		"summary.title":      "Thank you for your order",
		"summary.number":     "Order number",
		"field.city":         "City",
		"field.street":       "Street",
		"field.house_number": "House number",
		"field.flat_number":  "Flat number",
		"field.phone":        "Phone",
		"field.email":        "E-mail",
		"field.comments":     "Comments",
		"field.payment":      "Payment",
		"field.name":         "Name",
		"field.price":        "Price (zł)",
		"field.unit":         "Unit",
		"field.photo":        "Photo",
		"field.available":    "Available",
		"field.same_day":     "Same-day delivery",
		"login.title":        "Sign in",
		"login.username":     "Username",
		"login.password":     "Password",
		"login.submit":       "Sign in",
		"logout":             "Sign out",
		"seller.title":       "Seller area",
		"seller.products":    "Products",
		"seller.new_product": "New product",
		"seller.orders":      "Orders",
		"seller.save":        "Save",
		"seller.delete":      "Delete",
		"seller.photo":       "Change photo",
		"seller.paid":        "Paid",
		"seller.completed":   "Completed",
		"seller.today":       "Delivery today",
		"seller.no_orders":   "No orders to fulfil",
	},
}

// T translates code into lang. Unknown languages use the default catalog and
// unknown codes are returned unchanged.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[Default][code]; ok {
		return s
	}
	return code
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// DetectLanguage picks the best supported language for an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return English
	}
	return Polish
}

type langKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the request language or Default.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(langKey{}).(string); ok && l != "" {
		return l
	}
	return Default
}
