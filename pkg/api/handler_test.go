package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
)

func newTestRouter(t *testing.T) (http.Handler, *corpus.Session) {
	t.Helper()
	sess := corpus.NewSession(lexicon.Default(), 0, nil)
	return NewRouter(sess, nil), sess
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestEncodeEmail(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, "POST", "/v1/templates/email", `{"name":"John Smith","email":"john.smith@acme.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var enc corpus.Encoding
	decodeBody(t, w, &enc)

	if enc.Status != corpus.StatusOK {
		t.Errorf("status = %s", enc.Status)
	}
	want := []string{"first_original_0", ".", "last_original_0"}
	if !reflect.DeepEqual([]string(enc.Template), want) {
		t.Errorf("template = %v, want %v", enc.Template, want)
	}
	if !reflect.DeepEqual(enc.Sequence, []int{1, 2, 3}) {
		t.Errorf("sequence = %v", enc.Sequence)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestEncodeEmailUnknown(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, "POST", "/v1/templates/email", `{"name":"John Smith","email":"info@acme.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var enc corpus.Encoding
	decodeBody(t, w, &enc)
	if enc.Status != corpus.StatusUnknown || enc.Template != nil {
		t.Errorf("got %+v, want unknown with no template", enc)
	}

	w = do(t, h, "GET", "/v1/stats", "")
	var stats statsResponse
	decodeBody(t, w, &stats)
	if stats.Email.Total != 1 || len(stats.Email.UnkSequences) != 1 {
		t.Errorf("stats = %+v", stats.Email)
	}
	if stats.Email.UnkSequences[0].Identifier != "info" {
		t.Errorf("failure identifier = %q", stats.Email.UnkSequences[0].Identifier)
	}
}

func TestEncodeDomain(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, "POST", "/v1/templates/domain", `{"firm":"Blackstone Group","domain":"www.blackstone-group.com"}`)
	var enc corpus.Encoding
	decodeBody(t, w, &enc)
	want := []string{"0", "-", "1"}
	if !reflect.DeepEqual([]string(enc.Template), want) {
		t.Errorf("template = %v, want %v", enc.Template, want)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, "POST", "/v1/templates/email", `{"name":"John Smith","email":"john.smith@acme.com"}`)

	w := do(t, h, "POST", "/v1/decode", `{"kind":"email","ids":[3,2,1]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp decodeResponse
	decodeBody(t, w, &resp)
	want := []string{"last_original_0", ".", "first_original_0"}
	if !reflect.DeepEqual([]string(resp.Template), want) {
		t.Errorf("template = %v, want %v", resp.Template, want)
	}
}

func TestVocabulary(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, "POST", "/v1/templates/email", `{"name":"John Smith","email":"jsmith"}`)

	w := do(t, h, "GET", "/v1/vocabulary/email", "")
	var resp vocabularyResponse
	decodeBody(t, w, &resp)
	if resp.Size != 2 || !reflect.DeepEqual(resp.Tokens, []string{"f_0", "last_original_0"}) {
		t.Errorf("vocabulary = %+v", resp)
	}
}

func TestErrors(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name, method, path, body string
		code                     int
	}{
		{"bad json", "POST", "/v1/templates/email", `{`, http.StatusBadRequest},
		{"missing email", "POST", "/v1/templates/email", `{"name":"John Smith"}`, http.StatusBadRequest},
		{"missing domain", "POST", "/v1/templates/domain", `{"firm":"Acme"}`, http.StatusBadRequest},
		{"unknown id", "POST", "/v1/decode", `{"kind":"email","ids":[99]}`, http.StatusNotFound},
		{"bad kind", "POST", "/v1/decode", `{"kind":"phone","ids":[1]}`, http.StatusBadRequest},
		{"empty ids", "POST", "/v1/decode", `{"kind":"domain","ids":[]}`, http.StatusBadRequest},
		{"bad vocabulary kind", "GET", "/v1/vocabulary/phone", "", http.StatusBadRequest},
		{"get on batch", "GET", "/v1/templates/batch", "", http.StatusMethodNotAllowed},
		{"empty batch", "POST", "/v1/templates/batch", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.code, w.Body)
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("body %s has no error field", w.Body)
			}
		})
	}
}

func TestEncodeBatchEmptyMessage(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, "POST", "/v1/templates/batch", `{"emails":[],"firms":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["error"] != "emails and firms are both empty" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestEncodeBatch(t *testing.T) {
	h, _ := newTestRouter(t)

	body := `{"emails":[{"name":"John Smith","email":"john@acme.com"},{"name":"","email":"x@acme.com"}],
	          "firms":[{"firm":"Bain Capital","domain":"baincap.com"}]}`
	w := do(t, h, "POST", "/v1/templates/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp batchResponse
	decodeBody(t, w, &resp)
	if len(resp.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(resp.Results))
	}
	wantStatus := []corpus.Status{corpus.StatusOK, corpus.StatusInvalidInput, corpus.StatusOK}
	for i, r := range resp.Results {
		if r.Status != wantStatus[i] {
			t.Errorf("result %d status = %s, want %s", i, r.Status, wantStatus[i])
		}
	}
	if got := resp.Results[2].Template; !reflect.DeepEqual([]string(got), []string{"0", "1_sub_3"}) {
		t.Errorf("firm template = %v", got)
	}

	var items []string
	for i := 0; i <= maxBatch; i++ {
		items = append(items, `{"firm":"a","domain":"a.com"}`)
	}
	w = do(t, h, "POST", "/v1/templates/batch", `{"firms":[`+strings.Join(items, ",")+`]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized batch status = %d", w.Code)
	}
}

func TestHealthAndCORS(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, "POST", "/v1/templates/domain", `{"firm":"Acme","domain":"acme.com"}`)

	w := do(t, h, "GET", "/v1/health", "")
	var resp healthResponse
	decodeBody(t, w, &resp)
	if resp.Status != "ok" || resp.DomainVocabulary != 1 || resp.EmailVocabulary != 0 {
		t.Errorf("health = %+v", resp)
	}

	w = do(t, h, "OPTIONS", "/v1/templates/email", "")
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight: code %d, headers %v", w.Code, w.Header())
	}
}

func TestRequestIDPropagated(t *testing.T) {
	h, _ := newTestRouter(t)
	r := httptest.NewRequest("GET", "/v1/health", nil)
	r.Header.Set("X-Request-ID", "abc123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("X-Request-ID"); got != "abc123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}
