// Package phraser turns decisions into customer-facing text.
package phraser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

// FallbackResponse is shown when no phrasing could be produced.
const FallbackResponse = "We seem to be having a technical issue. Please try again in a moment."

// Paraphraser rewrites a rendered template into natural language.
type Paraphraser interface {
	Paraphrase(ctx context.Context, text string) (string, error)
}

type Option func(*TemplatePhraser)

func WithRandomSource(src RandomSource) Option {
	return func(p *TemplatePhraser) {
		if src != nil {
			p.rand = src
		}
	}
}

func WithParaphraser(pp Paraphraser) Option {
	return func(p *TemplatePhraser) {
		p.paraphraser = pp
	}
}

// TemplatePhraser renders a template chosen from the response key's family
// and optionally hands it to a Paraphraser. It only ever sees the
// PhrasingRequest projection.
type TemplatePhraser struct {
	rand        RandomSource
	paraphraser Paraphraser
}

var _ contractx.ResponsePhraser = (*TemplatePhraser)(nil)

func NewTemplatePhraser(opts ...Option) *TemplatePhraser {
	p := &TemplatePhraser{rand: globalRand{}}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *TemplatePhraser) Phrase(ctx context.Context, req contractx.PhrasingRequest) (contractx.PhrasingResponse, error) {
	family := familyFor(req.ResponseKey)
	tmpl := family[p.rand.IntN(len(family))]
	if needsPrice(tmpl) && req.CounterPrice == nil {
		return contractx.PhrasingResponse{}, fmt.Errorf("%w: response_key=%s requires counter_price", contractx.ErrValidation, req.ResponseKey)
	}
	text := render(tmpl, req.CounterPrice)

	if p.paraphraser == nil {
		return contractx.PhrasingResponse{ResponseText: text}, nil
	}

	out, err := p.paraphraser.Paraphrase(ctx, text)
	if err != nil {
		return contractx.PhrasingResponse{}, fmt.Errorf("%w: paraphrase: %v", contractx.ErrModelInvoke, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return contractx.PhrasingResponse{}, fmt.Errorf("%w: paraphrase is empty", contractx.ErrSchemaViolation)
	}
	if extra := newNumbers(text, out); len(extra) > 0 {
		log.Warn().
			Str("response_key", string(req.ResponseKey)).
			Strs("numbers", extra).
			Msg("paraphrase introduced numbers; rejected")
		return contractx.PhrasingResponse{}, fmt.Errorf("%w: paraphrase introduced numbers %v", contractx.ErrSchemaViolation, extra)
	}

	return contractx.PhrasingResponse{ResponseText: out}, nil
}

var numberPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

func numbersIn(text string) []string {
	raw := numberPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		n = strings.TrimRight(strings.ReplaceAll(n, ",", ""), ".")
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// newNumbers lists numbers in out that were not in the source template.
func newNumbers(source string, out string) []string {
	allowed := make(map[string]struct{})
	for _, n := range numbersIn(source) {
		allowed[n] = struct{}{}
	}
	var extra []string
	for _, n := range numbersIn(out) {
		if _, ok := allowed[n]; !ok {
			extra = append(extra, n)
		}
	}
	return extra
}
