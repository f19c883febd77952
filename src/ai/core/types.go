package core

import "context"

// Options controls model behavior; zero values fall back to provider defaults.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int
	SystemPrompt        string
}

// Client is a provider-agnostic single-turn completion client.
type Client interface {
	// Respond sends input as the user turn and returns the model's text.
	Respond(ctx context.Context, input string, opts Options) (string, error)
}

// Merge overlays the non-zero fields of opts onto defaults.
func Merge(defaults, opts Options) Options {
	out := defaults
	if opts.Model != "" {
		out.Model = opts.Model
	}
	if opts.Temperature != 0 {
		out.Temperature = opts.Temperature
	}
	if opts.MaxCompletionTokens != 0 {
		out.MaxCompletionTokens = opts.MaxCompletionTokens
	}
	if opts.SystemPrompt != "" {
		out.SystemPrompt = opts.SystemPrompt
	}
	return out
}

func ValueOrDefault(val, def string) string {
	if val != "" {
		return val
	}
	return def
}

func OrInt(v, d int) int {
	if v != 0 {
		return v
	}
	return d
}

func OrFloat(v, d float64) float64 {
	if v != 0 {
		return v
	}
	return d
}
