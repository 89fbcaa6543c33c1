package view

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/i18n"
	"github.com/diewo77/go-shop/internal/amount"
	"github.com/diewo77/go-shop/internal/delivery"
	"github.com/shopspring/decimal"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	devMode  = os.Getenv("DEV") == "1"
	shopName = "Sklep"
)

// partials are parsed alongside every page that uses the layout.
var partials = []string{"errors.html", "field.html"}

// SetDevMode disables the template cache so edits show up on reload.
func SetDevMode(on bool) { devMode = on }

// SetShopName sets the title shown in the layout header.
func SetShopName(name string) {
	if name != "" {
		shopName = name
	}
}

// layoutBase walks upward from a template path to find the directory that contains layout.html.
// If none is found, it returns the template's own directory.
func layoutBase(mainPath string) string {
	d := filepath.Dir(mainPath)
	for {
		lp := filepath.Join(d, "layout.html")
		if fi, err := os.Stat(lp); err == nil && !fi.IsDir() {
			return d
		}
		p := filepath.Dir(d)
		if p == d {
			return filepath.Dir(mainPath)
		}
		d = p
	}
}

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case decimal.Decimal:
		return n
	case *decimal.Decimal:
		if n != nil {
			return *n
		}
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case string:
		if d, err := amount.ParseAmount(n); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// Funcs returns the func map shared by all templates for the request language.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.LangFromContext(r.Context())
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"shop": func() string { return shopName },
		// amount renders a price as "12,50".
		"amount": func(v any) string { return amount.FormatAmount(toDecimal(v)) },
		"date": func(d time.Time) string {
			if d.IsZero() {
				return ""
			}
			return delivery.FormatDate(d)
		},
		"payment": func(method string) string { return i18n.T(lang, "payment."+method) },
		"year":    func() int { return time.Now().Year() },
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "field" (dict "Name" "city" "Value" .City) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// SetBaseDir overrides the template base directory (useful for tests or custom setups).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
	once = sync.Once{}
}

// ResetForTests clears caches and forces base dir detection to rerun.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

func cacheKey(r *http.Request, name string) string {
	return i18n.LangFromContext(r.Context()) + ":" + name
}

func parse(r *http.Request, name string) (*template.Template, error) {
	mainPath := filepath.Join(baseDir, name)
	if _, err := os.Stat(mainPath); err != nil {
		candidates := []string{
			filepath.Join("templates", name),
			filepath.Join("../templates", name),
			filepath.Join("../../templates", name),
			filepath.Join("../../../templates", name),
		}
		found := false
		for _, c := range candidates {
			if fi, e2 := os.Stat(c); e2 == nil && !fi.IsDir() {
				mainPath = c
				found = true
				break
			}
		}
		if !found {
			return nil, err
		}
	}
	base := layoutBase(mainPath)
	layoutPath := filepath.Join(base, "layout.html")
	funcMap := Funcs(r)

	content, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(layoutPath)
	if bytes.Contains(bytes.ToLower(content), []byte("<!doctype")) || err != nil || fi.IsDir() {
		return template.New(filepath.Base(mainPath)).Funcs(funcMap).ParseFiles(mainPath)
	}
	files := []string{layoutPath, mainPath}
	for _, p := range partials {
		pp := filepath.Join(base, "partials", p)
		if pf, err := os.Stat(pp); err == nil && !pf.IsDir() {
			files = append(files, pp)
		}
	}
	return template.New("layout.html").Funcs(funcMap).ParseFiles(files...)
}

// Render parses and executes a page template inside layout.html.
// name is relative to the templates directory (e.g. "seller/orders.html").
// Output is buffered so a template error never leaves a half-written page.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if baseDir == "" {
		once.Do(detectBase)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}
	data["Lang"] = i18n.LangFromContext(r.Context())

	key := cacheKey(r, name)
	var t *template.Template
	if !devMode {
		tplCache.RLock()
		t = tplCache.m[key]
		tplCache.RUnlock()
	}
	if t == nil {
		parsed, err := parse(r, name)
		if err != nil {
			http.Error(w, i18n.T(i18n.LangFromContext(r.Context()), "server_error"), http.StatusInternalServerError)
			return err
		}
		t = parsed
		if !devMode {
			tplCache.Lock()
			tplCache.m[key] = t
			tplCache.Unlock()
		}
	}
	if t == nil {
		return errors.New("template not cached")
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		http.Error(w, i18n.T(i18n.LangFromContext(r.Context()), "server_error"), http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
