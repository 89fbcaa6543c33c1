package view

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-shop/i18n"
	"github.com/shopspring/decimal"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	ResetForTests()
	SetBaseDir(dir)
	t.Cleanup(ResetForTests)
	return dir
}

func TestRenderUsesLayoutAndFuncs(t *testing.T) {
	writeTemplates(t, map[string]string{
		"layout.html":          `<html>{{ template "content" . }}</html>`,
		"partials/errors.html": `{{ define "errors" }}{{ range $k, $v := . }}[{{ $k }}:{{ t $v }}]{{ end }}{{ end }}`,
		"page.html":            `{{ define "content" }}{{ amount .Total }}|{{ date .Day }}|{{ payment "cash" }}|{{ template "errors" .Errors }}{{ end }}`,
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	err := Render(rr, req, "page.html", map[string]any{
		"Total":  decimal.RequireFromString("14.45"),
		"Day":    time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC),
		"Errors": map[string]string{"mleko": "invalid_quantity"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := rr.Body.String()
	want := "<html>14,45|05.06.2024|gotówka|[mleko:Niepoprawna ilość]</html>"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRenderLanguageFromContext(t *testing.T) {
	writeTemplates(t, map[string]string{
		"layout.html": `{{ template "content" . }}`,
		"page.html":   `{{ define "content" }}{{ lang }}:{{ t "shop.title" }}{{ end }}`,
	})
	for lang, want := range map[string]string{i18n.Polish: "pl:Sklep", i18n.English: "en:Shop"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(i18n.WithLang(req.Context(), lang))
		rr := httptest.NewRecorder()
		if err := Render(rr, req, "page.html", nil); err != nil {
			t.Fatalf("render %s: %v", lang, err)
		}
		if rr.Body.String() != want {
			t.Fatalf("%s: got %q want %q", lang, rr.Body.String(), want)
		}
	}
}

func TestRenderStatusAndTemplateError(t *testing.T) {
	writeTemplates(t, map[string]string{
		"layout.html": `{{ template "content" . }}`,
		"ok.html":     `{{ define "content" }}ok{{ end }}`,
		"bad.html":    `{{ define "content" }}{{ index .Missing 1 }}{{ end }}`,
	})

	rr := httptest.NewRecorder()
	if err := RenderStatus(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusUnprocessableEntity, "ok.html", nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	if err := Render(rr, httptest.NewRequest(http.MethodGet, "/", nil), "bad.html", nil); err == nil {
		t.Fatalf("expected execution error")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "Missing") {
		t.Fatalf("internal detail leaked: %q", rr.Body.String())
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	writeTemplates(t, map[string]string{"layout.html": `{{ template "content" . }}`})
	rr := httptest.NewRecorder()
	if err := Render(rr, httptest.NewRequest(http.MethodGet, "/", nil), "nope.html", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}
