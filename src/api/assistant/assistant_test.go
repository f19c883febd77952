package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stake-plus/crowdfund/src/ai/core"
	"github.com/stake-plus/crowdfund/src/api/apperr"
)

type fakeClient struct {
	calls  atomic.Int32
	reply  string
	err    error
	delay  time.Duration
	prompt string
	mu     sync.Mutex
}

func (f *fakeClient) Respond(_ context.Context, input string, opts core.Options) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompt = opts.SystemPrompt
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.reply, f.err
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func TestThanksShortCircuits(t *testing.T) {
	fc := &fakeClient{reply: "unused"}
	svc := NewService(fc, nil, Config{}, zap.NewNop())

	ans, err := svc.Ask(context.Background(), "Thanks, that helped a lot!")
	require.NoError(t, err)
	assert.Equal(t, KindAcknowledgment, ans.Kind)
	assert.Equal(t, acknowledgmentReply, ans.Text)
	assert.EqualValues(t, 0, fc.calls.Load())
}

func TestIrrelevantQuestionGetsRedirect(t *testing.T) {
	fc := &fakeClient{reply: "unused"}
	svc := NewService(fc, nil, Config{}, zap.NewNop())

	ans, err := svc.Ask(context.Background(), "What's a good pasta recipe?")
	require.NoError(t, err)
	assert.Equal(t, KindIrrelevant, ans.Kind)
	assert.Equal(t, irrelevantReply, ans.Text)
	assert.EqualValues(t, 0, fc.calls.Load())
}

func TestRelevantQuestionIsFormatted(t *testing.T) {
	fc := &fakeClient{reply: "## Gas\n\nGas is the **fee** paid to   run a\n<b>transaction</b>."}
	svc := NewService(fc, nil, Config{}, zap.NewNop())

	ans, err := svc.Ask(context.Background(), "Why do I pay gas for a smart contract call?")
	require.NoError(t, err)
	assert.Equal(t, KindRelevant, ans.Kind)
	assert.True(t, strings.HasPrefix(ans.Text, "Gas Gas is the fee paid to run a transaction.\n\nYou might also want to ask:\n- "))
	assert.Contains(t, ans.Text, "Why do I need to pay gas fees?")
	assert.Equal(t, DefaultSystemPrompt, fc.prompt)
	assert.EqualValues(t, 1, fc.calls.Load())
}

func TestSlowUpstreamTimesOut(t *testing.T) {
	// Same shape as a 16s upstream against the 15s default, scaled down.
	fc := &fakeClient{reply: "late", delay: time.Second}
	svc := NewService(fc, nil, Config{Timeout: 50 * time.Millisecond}, zap.NewNop())

	start := time.Now()
	_, err := svc.Ask(context.Background(), "How does the smart contract hold funds?")
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 503, apperr.HTTPStatus(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestUpstreamFailureIsUnavailable(t *testing.T) {
	fc := &fakeClient{err: errors.New("openai API error: status 500: boom")}
	svc := NewService(fc, nil, Config{}, zap.NewNop())

	_, err := svc.Ask(context.Background(), "How do I withdraw funds?")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))
	assert.EqualValues(t, 1, fc.calls.Load())
}

func TestUpstreamClientTimeoutMapsToTimeout(t *testing.T) {
	fc := &fakeClient{err: context.DeadlineExceeded}
	svc := NewService(fc, nil, Config{}, zap.NewNop())

	_, err := svc.Ask(context.Background(), "How do I donate ETH?")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestEmptyQuestion(t *testing.T) {
	svc := NewService(&fakeClient{}, nil, Config{}, zap.NewNop())
	_, err := svc.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestCacheServesRepeatQuestions(t *testing.T) {
	fc := &fakeClient{reply: "Connect MetaMask from the navbar."}
	cache := &mapCache{m: map[string]string{}}
	svc := NewService(fc, cache, Config{CacheTTL: time.Minute}, zap.NewNop())

	first, err := svc.Ask(context.Background(), "How do I connect my wallet?")
	require.NoError(t, err)
	second, err := svc.Ask(context.Background(), "  how do I   connect my WALLET? ")
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.EqualValues(t, 1, fc.calls.Load())
}

func TestCacheDisabledWithoutTTL(t *testing.T) {
	fc := &fakeClient{reply: "ok"}
	cache := &mapCache{m: map[string]string{}}
	svc := NewService(fc, cache, Config{}, zap.NewNop())

	_, _ = svc.Ask(context.Background(), "what is a wallet")
	_, _ = svc.Ask(context.Background(), "what is a wallet")
	assert.EqualValues(t, 2, fc.calls.Load())
	assert.Empty(t, cache.m)
}

func TestDefaults(t *testing.T) {
	svc := NewService(&fakeClient{}, nil, Config{}, zap.NewNop())
	assert.Equal(t, 15*time.Second, svc.cfg.Timeout)
	assert.Equal(t, DefaultSystemPrompt, svc.cfg.SystemPrompt)
}
