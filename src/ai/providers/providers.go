package providers

import (
	_ "github.com/stake-plus/crowdfund/src/ai/claude"
	_ "github.com/stake-plus/crowdfund/src/ai/deepseek"
	_ "github.com/stake-plus/crowdfund/src/ai/gemini"
	_ "github.com/stake-plus/crowdfund/src/ai/grok"
	_ "github.com/stake-plus/crowdfund/src/ai/openai"
)
