package grok

import (
	"github.com/stake-plus/crowdfund/src/ai/core"
	"github.com/stake-plus/crowdfund/src/ai/openai"
)

const apiURL = "https://api.x.ai/v1"

func init() {
	core.RegisterProvider("grok", newClient, "xai")
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	return openai.NewCompatible(openai.Compatible{
		Name:         "grok",
		APIKey:       cfg.GrokKey,
		BaseURL:      apiURL,
		DefaultModel: "grok-4-fast-non-reasoning",
	}, cfg)
}
