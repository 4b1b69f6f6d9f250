package corpus

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
	"github.com/hazyhaar/touchstone-templates/pkg/names"
	"github.com/hazyhaar/touchstone-templates/pkg/template"
	"github.com/hazyhaar/touchstone-templates/pkg/vocab"
)

const defaultProgressEvery = 5000

// Options tune an Encoder.
type Options struct {
	Workers       int // tokenization goroutines; <= 0 uses GOMAXPROCS
	CacheSize     int // memo cache bound; <= 0 keeps every entry
	ProgressEvery int // rows between progress lines; <= 0 uses 5000
	Logger        *slog.Logger
	Failures      *FailureLog
}

// Encoder turns row batches into templates and id sequences. Tokenization
// runs in parallel shards; statistics and vocabulary ids are then assigned
// in a single pass in row order, so the output does not depend on Workers.
//
// The memo caches are shared by every batch. Each batch gets its own
// Vocabulary and Stats.
type Encoder struct {
	email  *template.LocalPartTokenizer
	domain *template.DomainTokenizer
	opts   Options
	logger *slog.Logger
}

// NewEncoder returns an Encoder backed by lex.
func NewEncoder(lex *lexicon.Lexicon, opts Options) *Encoder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = defaultProgressEvery
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{
		email: template.NewLocalPartTokenizer(
			names.NewDecomposer(lex, opts.CacheSize),
			names.NewGenerator(lex, opts.CacheSize),
		),
		domain: template.NewDomainTokenizer(lex, opts.CacheSize),
		opts:   opts,
		logger: logger,
	}
}

// RowResult is the outcome of one input row.
type RowResult struct {
	Index      int               `json:"index"`
	ID         string            `json:"id,omitempty"`
	Subject    string            `json:"subject"`
	Identifier string            `json:"identifier"`
	Firm       string            `json:"firm,omitempty"`
	Status     Status            `json:"status"`
	Template   template.Template `json:"template"`
	Sequence   []int             `json:"sequence,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Summary counts row outcomes.
type Summary struct {
	Rows                int `json:"rows"`
	Encoded             int `json:"encoded"`
	Unknown             int `json:"unknown"`
	DecompositionFailed int `json:"decomposition_failed"`
	InvalidInput        int `json:"invalid_input"`
}

// Result is one encoded batch.
type Result struct {
	Kind       Kind
	Rows       []RowResult
	Sequences  [][]int // one per encoded row, in row order
	Vocabulary *vocab.Vocabulary
	Stats      template.Stats
	Summary    Summary
}

// Templates returns the template of every encoded row, in row order.
func (r *Result) Templates() []template.Template {
	out := make([]template.Template, 0, len(r.Sequences))
	for _, row := range r.Rows {
		if row.Status == StatusOK {
			out = append(out, row.Template)
		}
	}
	return out
}

// WriteSPMF writes the id sequences in SPMF format.
func (r *Result) WriteSPMF(w io.Writer) error {
	return vocab.WriteSPMF(w, r.Sequences)
}

// scanned is the output of the parallel phase for one row.
type scanned struct {
	id, subject, identifier, firm string

	scan   template.Scan
	status Status // set only for rows that never reached the tokenizer
	err    error
}

// EncodePeople tokenizes the local-part of each row's email against its
// name. Per-row failures are counted, never returned; the error is non-nil
// only when ctx is cancelled.
func (e *Encoder) EncodePeople(ctx context.Context, rows []PersonRow) (*Result, error) {
	out, err := e.scanAll(ctx, len(rows), func(i int) scanned {
		r := rows[i]
		s := scanned{id: r.ID, subject: r.Name, identifier: r.Email, firm: r.Firm}
		local, _, ok := SplitEmail(r.Email)
		if !ok || strings.TrimSpace(r.Name) == "" {
			s.status = StatusInvalidInput
			return s
		}
		s.identifier = local
		sc, err := e.email.Scan(r.Name, local)
		if err != nil {
			s.status = StatusDecompositionFailed
			s.err = err
			return s
		}
		s.scan = sc
		return s
	})
	if err != nil {
		return nil, err
	}
	return e.assemble(KindEmail, out), nil
}

// EncodeFirms tokenizes the root of each row's domain against its firm name.
func (e *Encoder) EncodeFirms(ctx context.Context, rows []FirmRow) (*Result, error) {
	out, err := e.scanAll(ctx, len(rows), func(i int) scanned {
		r := rows[i]
		s := scanned{id: r.ID, subject: r.Firm, identifier: r.Domain, firm: r.Firm}
		root := template.DomainRoot(r.Domain)
		if root == "" || strings.TrimSpace(r.Firm) == "" {
			s.status = StatusInvalidInput
			return s
		}
		s.identifier = root
		s.scan = e.domain.Scan(r.Firm, root)
		return s
	})
	if err != nil {
		return nil, err
	}
	return e.assemble(KindDomain, out), nil
}

func (e *Encoder) scanAll(ctx context.Context, n int, scan func(int) scanned) ([]scanned, error) {
	out := make([]scanned, n)
	if n == 0 {
		return out, ctx.Err()
	}

	workers := min(e.opts.Workers, n)
	chunk := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				out[i] = scan(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// assemble is the serialized pass: stats and vocabulary ids follow row order.
func (e *Encoder) assemble(kind Kind, rows []scanned) *Result {
	res := &Result{
		Kind:       kind,
		Rows:       make([]RowResult, len(rows)),
		Vocabulary: vocab.New(),
	}

	for i, s := range rows {
		if i > 0 && i%e.opts.ProgressEvery == 0 {
			e.logger.Info("tokenised", "kind", kind, "rows", i, "total", len(rows))
		}

		rr := RowResult{Index: i, ID: s.id, Subject: s.subject, Identifier: s.identifier, Firm: s.firm, Status: s.status}
		switch s.status {
		case StatusInvalidInput:
			res.Summary.InvalidInput++
		case StatusDecompositionFailed:
			res.Summary.DecompositionFailed++
			rr.Error = s.err.Error()
			e.logger.Debug("name decomposition failed", "row", i, "name", s.subject, "error", s.err)
		default:
			tpl := res.Stats.Record(s.subject, s.scan)
			if tpl == nil {
				rr.Status = StatusUnknown
				res.Summary.Unknown++
				break
			}
			seq, err := res.Vocabulary.AssignEncode(tpl)
			if err != nil {
				rr.Status = StatusUnknown
				rr.Error = err.Error()
				res.Summary.Unknown++
				break
			}
			rr.Status = StatusOK
			rr.Template = tpl
			rr.Sequence = seq
			res.Sequences = append(res.Sequences, seq)
			res.Summary.Encoded++
		}

		if rr.Status != StatusOK {
			e.opts.Failures.Log(FailureEntry{
				Kind:       kind,
				RowID:      rr.ID,
				Status:     rr.Status,
				Subject:    rr.Subject,
				Identifier: rr.Identifier,
				Error:      rr.Error,
			})
		}
		res.Rows[i] = rr
	}

	res.Summary.Rows = len(rows)
	e.logger.Info("finished tokenizing",
		"kind", kind,
		"rows", res.Summary.Rows,
		"encoded", res.Summary.Encoded,
		"unknown", res.Summary.Unknown,
		"decomposition_failed", res.Summary.DecompositionFailed,
		"invalid_input", res.Summary.InvalidInput,
		"vocabulary", res.Vocabulary.Len(),
	)
	return res
}
