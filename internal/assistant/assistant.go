// Package assistant answers free-form token questions. It detects the token,
// classifies the question, fetches market figures and either composes a
// templated answer or asks a language model to write one.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"croak-assistant/internal/catalog"
	"croak-assistant/internal/classify"
	"croak-assistant/internal/compose"
	"croak-assistant/internal/detection"
	"croak-assistant/internal/domain"
	"croak-assistant/internal/llm"
	"croak-assistant/internal/market"
	"croak-assistant/internal/observability"
	"croak-assistant/internal/storage"
)

// Answer sources recorded on replies and interactions.
const (
	SourceComposer = "composer"
	SourceLLM      = "llm"
)

// ErrEmptyMessage is returned for blank questions.
var ErrEmptyMessage = errors.New("empty message")

// Options configures an Assistant. Catalog is required.
type Options struct {
	Catalog *catalog.Catalog

	// Market supplies figures. Nil answers with placeholders only.
	Market market.Source

	// Writer writes non-price answers. Nil composes every answer.
	Writer llm.Writer

	// Tokens, when set, is consulted for token metadata before the catalog.
	Tokens storage.TokenStore

	// Interactions, when set, records every answered question.
	Interactions storage.InteractionStore

	Logger  *zap.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// Reply is the answer to one question.
type Reply struct {
	ID        string                `json:"id"`
	Symbol    string                `json:"symbol"`
	Detected  bool                  `json:"detected"`
	Rule      detection.Rule        `json:"rule"`
	Category  domain.QueryCategory  `json:"category"`
	Intent    domain.Intent         `json:"intent"`
	Text      string                `json:"text"`
	Figures   *domain.MarketFigures `json:"figures,omitempty"`
	Source    string                `json:"source"`
	CreatedAt int64                 `json:"created_at"`
}

// Assistant orchestrates detection, classification, market lookup and answer writing.
// It is safe for concurrent use.
type Assistant struct {
	cat          *catalog.Catalog
	detector     *detection.Detector
	composer     *compose.Composer
	market       market.Source
	writer       llm.Writer
	tokens       storage.TokenStore
	interactions storage.InteractionStore
	logger       *zap.Logger
	metrics      *observability.Metrics
	now          func() time.Time
}

// New creates an Assistant.
func New(opts Options) (*Assistant, error) {
	if opts.Catalog == nil {
		return nil, errors.New("assistant: catalog is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.DefaultMetrics
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Assistant{
		cat:          opts.Catalog,
		detector:     detection.New(opts.Catalog),
		composer:     compose.New(opts.Catalog),
		market:       opts.Market,
		writer:       opts.Writer,
		tokens:       opts.Tokens,
		interactions: opts.Interactions,
		logger:       opts.Logger.Named("assistant"),
		metrics:      opts.Metrics,
		now:          opts.Now,
	}, nil
}

// Detector returns the detector built from the assistant's catalog.
func (a *Assistant) Detector() *detection.Detector {
	return a.detector
}

// Catalog returns the assistant's catalog.
func (a *Assistant) Catalog() *catalog.Catalog {
	return a.cat
}

// Ask answers text.
func (a *Assistant) Ask(ctx context.Context, text string) (*Reply, error) {
	started := a.now()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	match := a.detector.Match(text)
	symbol := match.SymbolOrFallback()
	category := classify.Query(text)
	intent := classify.Intent(text)

	tok, figures := a.gather(ctx, symbol, match.Found())
	figures = market.Derive(figures)

	answer, source := a.answer(ctx, text, symbol, category, intent, tok, figures)

	reply := &Reply{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Detected:  match.Found(),
		Rule:      match.Rule,
		Category:  category,
		Intent:    intent,
		Text:      answer,
		Figures:   &figures,
		Source:    source,
		CreatedAt: started.UnixMilli(),
	}

	a.record(ctx, text, match, reply)
	a.metrics.RecordQuestion(match.Rule.String(), category.String(), intent.String(), source, a.now().Sub(started))

	a.logger.Debug("answered question",
		zap.String("id", reply.ID),
		zap.String("symbol", symbol),
		zap.String("rule", match.Rule.String()),
		zap.String("category", category.String()),
		zap.String("intent", intent.String()),
		zap.String("source", source),
	)
	return reply, nil
}

// gather loads token metadata and market figures concurrently.
// Neither lookup is fatal: missing data renders as placeholders.
func (a *Assistant) gather(ctx context.Context, symbol string, detected bool) (domain.TokenRecord, domain.MarketFigures) {
	tok := domain.UnknownToken(symbol)
	figures := domain.MarketFigures{Symbol: symbol}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tok = a.token(gctx, symbol)
		return nil
	})

	if detected && a.market != nil {
		g.Go(func() error {
			start := a.now()
			f, err := a.market.Figures(gctx, symbol)
			src := "none"
			if f != nil && f.Source != "" {
				src = f.Source
			}
			a.metrics.RecordMarketFetch(src, err, a.now().Sub(start))
			if err != nil {
				a.logger.Warn("market figures unavailable", zap.String("symbol", symbol), zap.Error(err))
			}
			if f != nil {
				figures = *f
				figures.Symbol = symbol
			}
			return nil
		})
	}

	_ = g.Wait()
	return tok, figures
}

func (a *Assistant) token(ctx context.Context, symbol string) domain.TokenRecord {
	if a.tokens != nil {
		rec, err := a.tokens.GetBySymbol(ctx, symbol)
		if err == nil {
			return *rec
		}
		if !errors.Is(err, storage.ErrNotFound) {
			a.logger.Warn("load token metadata", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	if rec, ok := a.cat.Lookup(symbol); ok {
		return rec
	}
	return domain.UnknownToken(symbol)
}

// answer composes price questions and delegates the rest to the writer when
// one is configured. A writer failure falls back to the composer.
func (a *Assistant) answer(
	ctx context.Context,
	text, symbol string,
	category domain.QueryCategory,
	intent domain.Intent,
	tok domain.TokenRecord,
	figures domain.MarketFigures,
) (string, string) {
	if a.writer == nil || classify.IsPriceQuery(text) {
		return a.composer.ComposeToken(tok, category, figures), SourceComposer
	}

	start := a.now()
	out, err := a.writer.Write(ctx, llm.Prompt{
		Message:  text,
		Symbol:   symbol,
		Category: category,
		Intent:   intent,
		Token:    tok,
		Figures:  figures,
	})
	a.metrics.RecordLLMCall(err, a.now().Sub(start))
	if err != nil {
		a.logger.Warn("language model failed, composing answer",
			zap.String("symbol", symbol),
			zap.String("category", category.String()),
			zap.Error(err),
		)
		return a.composer.ComposeToken(tok, category, figures), SourceComposer
	}
	return out, SourceLLM
}

func (a *Assistant) record(ctx context.Context, text string, match detection.Result, reply *Reply) {
	if a.interactions == nil {
		return
	}

	var symbol *string
	if match.Found() {
		s := match.Symbol
		symbol = &s
	}

	err := a.interactions.Insert(ctx, &domain.Interaction{
		ID:        reply.ID,
		Message:   text,
		Symbol:    symbol,
		Rule:      match.Rule.String(),
		Category:  reply.Category,
		Intent:    reply.Intent,
		Response:  reply.Text,
		Source:    reply.Source,
		CreatedAt: reply.CreatedAt,
	})
	if err != nil {
		a.metrics.RecordInteractionStoreError()
		a.logger.Error("record interaction", zap.String("id", reply.ID), zap.Error(err))
	}
}
