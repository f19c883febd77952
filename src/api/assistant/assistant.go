package assistant

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/stake-plus/crowdfund/src/ai/core"
	"github.com/stake-plus/crowdfund/src/api/apperr"
	"github.com/stake-plus/crowdfund/src/logging"
)

const (
	DefaultTimeout = 15 * time.Second
	maxQuestionLen = 1000
)

const DefaultSystemPrompt = `You are the assistant of a decentralized crowdfunding platform built on Ethereum.
Campaign creators publish campaigns with a funding goal and deadline; donors contribute ETH through MetaMask;
funds are held by a smart contract and released to the creator only after donors approve a withdrawal request by vote.
Answer only questions about this platform, crowdfunding, wallets, gas, donations, withdrawals and the underlying blockchain.
Keep answers short (at most five sentences), plain text, no markdown, and never ask for private keys or seed phrases.`

var (
	ErrEmptyQuestion = apperr.InvalidArg("question is required")
	ErrTimeout       = apperr.Timeout("the assistant took too long to respond, please try again")
)

// Answer is what the assistant returns for one question.
type Answer struct {
	Text string
	Kind Kind
	// Cached reports an answer served from the answer cache.
	Cached bool
}

type Config struct {
	SystemPrompt string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

// Service filters questions and forwards on-topic ones to the completion client.
type Service struct {
	client core.Client
	cache  Cache
	cfg    Config
	log    *zap.Logger
}

// NewService wires the assistant; cache may be nil.
func NewService(client core.Client, cache Cache, cfg Config, log *zap.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.CacheTTL <= 0 {
		cache = nil
	}
	return &Service{client: client, cache: cache, cfg: cfg, log: log.Named("assistant")}
}

func (s *Service) Ask(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return Answer{}, apperr.InvalidArg("question is too long")
	}

	kind := Classify(question)
	if kind != KindRelevant {
		return Answer{Text: cannedReply(kind), Kind: kind}, nil
	}

	key := cacheKey(question)
	if s.cache != nil {
		if v, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn("answer cache read failed", zap.Error(err))
		} else if ok {
			return Answer{Text: v, Kind: kind, Cached: true}, nil
		}
	}

	if s.client == nil {
		return Answer{}, apperr.New(apperr.CodeUnavailable, "the assistant is not configured")
	}
	raw, err := s.complete(ctx, question)
	if err != nil {
		return Answer{}, err
	}

	text := formatAnswer(question, raw)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, text, s.cfg.CacheTTL); err != nil {
			s.log.Warn("answer cache write failed", zap.Error(err))
		}
	}
	return Answer{Text: text, Kind: kind}, nil
}

type completion struct {
	text string
	err  error
}

// complete races the upstream call against the timer. The call's context is
// cancelled on return so a late response is dropped.
func (s *Service) complete(ctx context.Context, question string) (string, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		text, err := s.client.Respond(callCtx, question, core.Options{SystemPrompt: s.cfg.SystemPrompt})
		done <- completion{text: text, err: err}
	}()

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return "", s.upstreamError(res.err)
		}
		return res.text, nil
	case <-timer.C:
		s.log.Warn("assistant upstream timed out", zap.Duration("timeout", s.cfg.Timeout))
		return "", ErrTimeout
	case <-ctx.Done():
		return "", apperr.Wrap(apperr.CodeUnavailable, "request cancelled", ctx.Err())
	}
}

func (s *Service) upstreamError(err error) error {
	switch {
	case logging.IsTimeout(err) && !errors.Is(err, context.Canceled):
		s.log.Warn("assistant upstream timed out", zap.Error(err))
		return ErrTimeout
	case logging.IsRateLimit(err):
		s.log.Warn("assistant upstream rate limited", zap.Error(err))
		return apperr.Wrap(apperr.CodeUnavailable, "the assistant is busy, please try again shortly", err)
	default:
		s.log.Error("assistant upstream failed", zap.Error(err))
		return apperr.Wrap(apperr.CodeUnavailable, "the assistant is temporarily unavailable", err)
	}
}
