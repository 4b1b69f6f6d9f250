package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/kit"
	"github.com/hazyhaar/touchstone-templates/pkg/template"
)

// Shared request/response types used by both HTTP and MCP transports.

const maxBatch = 100

type encodeEmailReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type encodeDomainReq struct {
	Firm   string `json:"firm"`
	Domain string `json:"domain"`
}

type encodeBatchReq struct {
	Emails []encodeEmailReq
	Firms  []encodeDomainReq
}

type batchResponse struct {
	Results []corpus.Encoding `json:"results"`
}

type decodeReq struct {
	Kind corpus.Kind `json:"kind"`
	IDs  []int       `json:"ids"`
}

type decodeResponse struct {
	Kind     corpus.Kind       `json:"kind"`
	Template template.Template `json:"template"`
}

type vocabularyReq struct {
	Kind corpus.Kind
}

type vocabularyResponse struct {
	Kind   corpus.Kind `json:"kind"`
	Size   int         `json:"size"`
	Tokens []string    `json:"tokens"` // tokens[i] has id i+1
}

type statsResponse struct {
	Email  template.Stats `json:"email"`
	Domain template.Stats `json:"domain"`
}

// requestError marks a caller mistake; transports report it as a bad request.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func isRequestError(err error) bool {
	var re *requestError
	return errors.As(err, &re)
}

func parseKind(s corpus.Kind) (corpus.Kind, error) {
	k, ok := corpus.ParseKind(string(s))
	if !ok {
		return "", badRequest("unknown kind %q (want email or domain)", s)
	}
	return k, nil
}

// Endpoints backed by one session.

func encodeEmailEndpoint(sess *corpus.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*encodeEmailReq)
		if req.Name == "" || req.Email == "" {
			return nil, badRequest("name and email are required")
		}
		return sess.EncodeEmail(req.Name, req.Email), nil
	}
}

func encodeDomainEndpoint(sess *corpus.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*encodeDomainReq)
		if req.Firm == "" || req.Domain == "" {
			return nil, badRequest("firm and domain are required")
		}
		return sess.EncodeDomain(req.Firm, req.Domain), nil
	}
}

func encodeBatchEndpoint(sess *corpus.Session) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*encodeBatchReq)
		n := len(req.Emails) + len(req.Firms)
		if n == 0 {
			return nil, badRequest("emails and firms are both empty")
		}
		if n > maxBatch {
			return nil, badRequest("too many items (max %d, got %d)", maxBatch, n)
		}
		results := make([]corpus.Encoding, 0, n)
		for _, e := range req.Emails {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results = append(results, sess.EncodeEmail(e.Name, e.Email))
		}
		for _, f := range req.Firms {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results = append(results, sess.EncodeDomain(f.Firm, f.Domain))
		}
		return batchResponse{Results: results}, nil
	}
}

func decodeEndpoint(sess *corpus.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*decodeReq)
		kind, err := parseKind(req.Kind)
		if err != nil {
			return nil, err
		}
		if len(req.IDs) == 0 {
			return nil, badRequest("ids array is empty")
		}
		tpl, err := sess.Decode(kind, req.IDs)
		if err != nil {
			return nil, err
		}
		return decodeResponse{Kind: kind, Template: tpl}, nil
	}
}

func vocabularyEndpoint(sess *corpus.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*vocabularyReq)
		kind, err := parseKind(req.Kind)
		if err != nil {
			return nil, err
		}
		tokens, err := sess.Vocabulary(kind)
		if err != nil {
			return nil, err
		}
		return vocabularyResponse{Kind: kind, Size: len(tokens), Tokens: tokens}, nil
	}
}

func statsEndpoint(sess *corpus.Session) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		s := sess.Stats()
		return statsResponse{Email: s[corpus.KindEmail], Domain: s[corpus.KindDomain]}, nil
	}
}
