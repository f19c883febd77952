package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	aicore "github.com/stake-plus/crowdfund/src/ai/core"
	_ "github.com/stake-plus/crowdfund/src/ai/providers"
	"github.com/stake-plus/crowdfund/src/api/assistant"
	"github.com/stake-plus/crowdfund/src/api/config"
	"github.com/stake-plus/crowdfund/src/logging"
)

var (
	providersFlag = flag.String("providers", "openai", "Comma-separated provider list or 'all'")
	questionsFlag = flag.String("questions", "", "Pipe-separated questions (defaults to a built-in set)")
	modelFlag     = flag.String("model", "", "Override model name")
	timeoutFlag   = flag.Duration("timeout", assistant.DefaultTimeout, "Assistant timeout per question")
	maxLenFlag    = flag.Int("max-bytes", 1200, "Maximum bytes of output to print per answer (0=unlimited)")
	levelFlag     = flag.String("level", "", "Print the suggested questions for a level and exit")
)

var allProviders = []string{"openai", "gemini", "claude", "deepseek", "grok"}

// defaultQuestions cover a canned reply, an off-topic redirect and two upstream calls.
var defaultQuestions = []string{
	"thanks!",
	"What is the best pizza topping?",
	"How do I donate to a campaign with MetaMask?",
	"What happens to my ETH if a campaign misses its goal?",
}

func main() {
	log.SetFlags(0)
	flag.Parse()

	if *levelFlag != "" {
		groups, err := assistant.SuggestedQuestions(*levelFlag)
		if err != nil {
			log.Fatal(err)
		}
		for level, qs := range groups {
			fmt.Printf("[%s]\n- %s\n", level, strings.Join(qs, "\n- "))
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New("development", "warn")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	questions := defaultQuestions
	if strings.TrimSpace(*questionsFlag) != "" {
		questions = splitQuestions(*questionsFlag)
	}

	for _, provider := range resolveProviders(*providersFlag) {
		client, err := aicore.NewClient(aicore.FactoryConfig{
			Provider:    provider,
			Model:       pickFirst(*modelFlag, cfg.AIModel),
			Timeout:     *timeoutFlag,
			OpenAIKey:   cfg.OpenAIKey,
			GeminiKey:   cfg.GeminiKey,
			ClaudeKey:   cfg.ClaudeKey,
			DeepSeekKey: cfg.DeepSeekKey,
			GrokKey:     cfg.GrokKey,
		})
		if err != nil {
			log.Printf("[%s] ERROR: client init: %v", provider, err)
			continue
		}
		svc := assistant.NewService(client, nil, assistant.Config{
			SystemPrompt: cfg.AISystemPrompt,
			Timeout:      *timeoutFlag,
		}, logger)

		fmt.Printf("=== %s ===\n", provider)
		for _, q := range questions {
			ask(svc, q)
		}
	}
}

func ask(svc *assistant.Service, question string) {
	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag+5*time.Second)
	defer cancel()

	start := time.Now()
	answer, err := svc.Ask(ctx, question)
	if err != nil {
		fmt.Printf("Q: %s\n  ❌ %v\n", question, err)
		return
	}
	fmt.Printf("Q: %s\n  ✅ %s (%.1fs)\n%s\n", question, answer.Kind, time.Since(start).Seconds(), truncate(answer.Text, *maxLenFlag))
}

func resolveProviders(raw string) []string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return append([]string{}, allProviders...)
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	var out []string
	seen := map[string]struct{}{}
	for _, p := range parts {
		key := strings.ToLower(strings.TrimSpace(p))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func splitQuestions(raw string) []string {
	var out []string
	for _, q := range strings.Split(raw, "|") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func pickFirst(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:limit]) + "...(truncated)"
}
