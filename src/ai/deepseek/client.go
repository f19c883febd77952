package deepseek

import (
	"github.com/stake-plus/crowdfund/src/ai/core"
	"github.com/stake-plus/crowdfund/src/ai/openai"
)

const apiURL = "https://api.deepseek.com"

func init() {
	core.RegisterProvider("deepseek", newClient)
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	return openai.NewCompatible(openai.Compatible{
		Name:         "deepseek",
		APIKey:       cfg.DeepSeekKey,
		BaseURL:      apiURL,
		DefaultModel: "deepseek-chat",
	}, cfg)
}
