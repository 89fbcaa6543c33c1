package pricing

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/diewo77/go-shop/validation"
)

// RawOrder maps a product key to the quantity text the customer typed.
type RawOrder map[string]string

// controlFields are posted with the shop form but are not products.
var controlFields = map[string]bool{
	"csrf_token":          true,
	"csrfmiddlewaretoken": true,
}

const maxKeyLength = 255

// ParseRawOrder extracts product quantities from a submitted shop form.
// Control fields and blank quantities are dropped; keys that cannot be a
// product key are reported as invalid_field.
func ParseRawOrder(form url.Values) (RawOrder, validation.Violations) {
	raw := RawOrder{}
	v := validation.Violations{}
	for key, values := range form {
		if controlFields[key] {
			continue
		}
		if !validKey(key) {
			v.Add(key, "invalid_field")
			continue
		}
		if len(values) == 0 {
			continue
		}
		q := strings.TrimSpace(values[0])
		if q == "" {
			continue
		}
		raw[key] = q
	}
	return raw, v
}

// validKey accepts lowercase product keys as produced by models.KeyFromName.
func validKey(key string) bool {
	if key == "" || len(key) > maxKeyLength {
		return false
	}
	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsUpper(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Values renders raw back into form values, used to echo input on errors.
func (raw RawOrder) Values() url.Values {
	out := url.Values{}
	for k, q := range raw {
		out.Set(k, q)
	}
	return out
}
