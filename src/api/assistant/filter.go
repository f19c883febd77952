package assistant

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindAcknowledgment Kind = "acknowledgment"
	KindGreeting       Kind = "greeting"
	KindClosing        Kind = "closing"
	KindRelevant       Kind = "relevant"
	KindIrrelevant     Kind = "irrelevant"
)

const (
	acknowledgmentReply = "You're welcome! If you have any more questions about crowdfunding, campaigns, donations or blockchain, feel free to ask."
	greetingReply       = "Hello! I'm the CrowdFund assistant. Ask me anything about creating campaigns, donating with your wallet, withdrawals or how the smart contract works."
	closingReply        = "Glad I could help. Come back any time you have a question about your campaign or donations."
	irrelevantReply     = "I can only help with questions about this crowdfunding platform, blockchain, Ethereum wallets and donations. Please ask something related to campaigns, donating or withdrawing funds."
)

var keywords = []string{
	"crowdfund", "crowdfunding", "campaign", "fundraiser", "fundraising",
	"blockchain", "ethereum", "eth", "ether", "gwei", "gas",
	"smart contract", "contract", "solidity",
	"donate", "donation", "donor", "backer", "contribute", "contribution",
	"wallet", "metamask", "private key", "seed phrase",
	"token", "crypto", "cryptocurrency", "nft",
	"withdraw", "withdrawal", "refund", "escrow",
	"vote", "voting", "fund", "funding", "funds",
	"transaction", "tx", "block", "ipfs", "web3", "dapp",
	"decentralized", "decentralised", "on-chain", "onchain",
	"goal", "deadline", "milestone",
}

var (
	keywordRe = buildKeywordRe(keywords)

	acknowledgmentRe = regexp.MustCompile(`(?i)\b(thanks|thank\s+you|thx|ty|appreciate\s+it|cheers)\b`)
	greetingRe       = regexp.MustCompile(`(?i)^(hi|hello|hey|hiya|yo|gm|good\s+(morning|afternoon|evening))(\s+(there|everyone|all|bot))?[\s!.,?]*$`)
	closingRe        = regexp.MustCompile(`(?i)^(ok|okay|k|cool|great|nice|got\s+it|bye|goodbye|see\s+you)[\s!.,?]*$`)
)

func buildKeywordRe(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)(?:s|es)?\b`)
}

// Classify decides whether a question is conversational filler, on topic or off topic.
// Filler is checked first so "thanks, what is gas?" still gets the acknowledgment.
func Classify(question string) Kind {
	q := strings.TrimSpace(question)
	switch {
	case acknowledgmentRe.MatchString(q):
		return KindAcknowledgment
	case greetingRe.MatchString(q):
		return KindGreeting
	case closingRe.MatchString(q):
		return KindClosing
	case keywordRe.MatchString(q):
		return KindRelevant
	default:
		return KindIrrelevant
	}
}

func cannedReply(k Kind) string {
	switch k {
	case KindAcknowledgment:
		return acknowledgmentReply
	case KindGreeting:
		return greetingReply
	case KindClosing:
		return closingReply
	default:
		return irrelevantReply
	}
}
