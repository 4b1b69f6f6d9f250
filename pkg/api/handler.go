// Package api exposes a template session over HTTP and MCP. Both transports
// dispatch to the same kit.Endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/kit"
	"github.com/hazyhaar/touchstone-templates/pkg/vocab"
)

const maxBody = 64 * 1024 // 64 KiB

// NewRouter returns an http.Handler with all template API routes.
func NewRouter(sess *corpus.Session, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(logger, name))(ep)
	}

	mux := http.NewServeMux()
	h := &handler{
		encodeEmail:  wrap("encode_email", encodeEmailEndpoint(sess)),
		encodeDomain: wrap("encode_domain", encodeDomainEndpoint(sess)),
		encodeBatch:  wrap("encode_batch", encodeBatchEndpoint(sess)),
		decode:       wrap("decode", decodeEndpoint(sess)),
		vocabulary:   wrap("vocabulary", vocabularyEndpoint(sess)),
		stats:        wrap("stats", statsEndpoint(sess)),
		sess:         sess,
	}

	mux.HandleFunc("POST /v1/templates/email", h.handleEncodeEmail)
	mux.HandleFunc("POST /v1/templates/domain", h.handleEncodeDomain)
	mux.HandleFunc("GET /v1/templates/batch", methodNotAllowed) // prevent GET on batch
	mux.HandleFunc("POST /v1/templates/batch", h.handleEncodeBatch)
	mux.HandleFunc("POST /v1/decode", h.handleDecode)
	mux.HandleFunc("GET /v1/vocabulary/{kind}", h.handleVocabulary)
	mux.HandleFunc("GET /v1/stats", h.handleStats)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestID(mux))
}

type handler struct {
	encodeEmail  kit.Endpoint
	encodeDomain kit.Endpoint
	encodeBatch  kit.Endpoint
	decode       kit.Endpoint
	vocabulary   kit.Endpoint
	stats        kit.Endpoint
	sess         *corpus.Session
}

// --- encode single pair ---

func (h *handler) handleEncodeEmail(w http.ResponseWriter, r *http.Request) {
	var req encodeEmailReq
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := h.encodeEmail(r.Context(), &req)
	respond(w, resp, err)
}

func (h *handler) handleEncodeDomain(w http.ResponseWriter, r *http.Request) {
	var req encodeDomainReq
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := h.encodeDomain(r.Context(), &req)
	respond(w, resp, err)
}

// --- encode batch ---

type httpBatchRequest struct {
	Emails []encodeEmailReq  `json:"emails,omitempty"`
	Firms  []encodeDomainReq `json:"firms,omitempty"`
}

func (h *handler) handleEncodeBatch(w http.ResponseWriter, r *http.Request) {
	var req httpBatchRequest
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := h.encodeBatch(r.Context(), &encodeBatchReq{Emails: req.Emails, Firms: req.Firms})
	respond(w, resp, err)
}

// --- decode ---

func (h *handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeReq
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := h.decode(r.Context(), &req)
	respond(w, resp, err)
}

// --- vocabulary ---

func (h *handler) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.vocabulary(r.Context(), &vocabularyReq{Kind: corpus.Kind(r.PathValue("kind"))})
	respond(w, resp, err)
}

// --- stats ---

func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats(r.Context(), nil)
	respond(w, resp, err)
}

// --- health ---

type healthResponse struct {
	Status           string `json:"status"`
	EmailVocabulary  int    `json:"email_vocabulary"`
	DomainVocabulary int    `json:"domain_vocabulary"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	emails, _ := h.sess.Vocabulary(corpus.KindEmail)
	domains, _ := h.sess.Vocabulary(corpus.KindDomain)
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           "ok",
		EmailVocabulary:  len(emails),
		DomainVocabulary: len(domains),
	})
}

// --- helpers ---

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func respond(w http.ResponseWriter, resp any, err error) {
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	var lookup *vocab.LookupError
	switch {
	case isRequestError(err):
		return http.StatusBadRequest
	case errors.As(err, &lookup):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID propagates X-Request-ID, minting one when the client sent none.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = kit.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
