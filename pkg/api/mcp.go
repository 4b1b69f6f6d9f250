package api

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the template MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, sess *corpus.Session, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(logger, name))(ep)
	}

	kit.RegisterMCPTool(srv, mcp.NewTool("encode_email",
		mcp.WithDescription("Tokenize the local-part of an email address against the person's full name and return its template and id sequence."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Full name of the person, e.g. John M. Smith")),
		mcp.WithString("email", mcp.Required(), mcp.Description("Email address or bare local-part, e.g. john.smith@acme.com")),
	), wrap("encode_email", encodeEmailEndpoint(sess)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		name, _ := args["name"].(string)
		email, _ := args["email"].(string)
		return &kit.MCPDecodeResult{Request: &encodeEmailReq{Name: name, Email: email}}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("encode_domain",
		mcp.WithDescription("Tokenize the root of a firm's domain against the firm name and return its template and id sequence."),
		mcp.WithString("firm", mcp.Required(), mcp.Description("Firm name, e.g. Bain Capital")),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Domain or website, e.g. baincapital.com")),
	), wrap("encode_domain", encodeDomainEndpoint(sess)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		firm, _ := args["firm"].(string)
		domain, _ := args["domain"].(string)
		return &kit.MCPDecodeResult{Request: &encodeDomainReq{Firm: firm, Domain: domain}}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("decode_ids",
		mcp.WithDescription("Map a sequence of vocabulary ids back to template tokens."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Vocabulary kind: email or domain")),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated ids, e.g. 1,2,3")),
	), wrap("decode", decodeEndpoint(sess)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		kind, _ := args["kind"].(string)
		raw, _ := args["ids"].(string)
		ids, err := parseIDs(raw)
		if err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &decodeReq{Kind: corpus.Kind(kind), IDs: ids}}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("get_vocabulary",
		mcp.WithDescription("List the tokens of a vocabulary in id order."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Vocabulary kind: email or domain")),
	), wrap("vocabulary", vocabularyEndpoint(sess)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		kind, _ := req.GetArguments()["kind"].(string)
		return &kit.MCPDecodeResult{Request: &vocabularyReq{Kind: corpus.Kind(kind)}}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("get_stats",
		mcp.WithDescription("Return the tokenizer counters: total scanned, UNK tokens and the identifiers that failed."),
	), wrap("stats", statsEndpoint(sess)), func(mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{}, nil
	})
}

func parseIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("id %q is not an integer", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
