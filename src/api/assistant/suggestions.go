package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stake-plus/crowdfund/src/api/apperr"
)

const maxSuggestions = 3

type topic struct {
	match       *regexp.Regexp
	suggestions []string
}

var topics = []topic{
	{regexp.MustCompile(`(?i)\b(wallet|metamask|seed phrase|private key|connect)`), []string{
		"How do I connect MetaMask to the platform?",
		"Which networks does the platform support?",
		"How do I keep my wallet secure?",
	}},
	{regexp.MustCompile(`(?i)\b(gas|gwei|fee|transaction|tx)`), []string{
		"Why do I need to pay gas fees?",
		"How can I check the status of my transaction?",
		"What happens if my transaction fails?",
	}},
	{regexp.MustCompile(`(?i)\b(donat|contribut|backer|donor|refund)`), []string{
		"How do I donate to a campaign?",
		"Can I get a refund if a campaign fails?",
		"How can I see which campaigns I have donated to?",
	}},
	{regexp.MustCompile(`(?i)\b(withdraw|vote|voting|escrow)`), []string{
		"How does withdrawal voting work?",
		"Who can vote on a withdrawal request?",
		"When can a campaign owner withdraw funds?",
	}},
	{regexp.MustCompile(`(?i)\b(smart contract|contract|solidity|blockchain|ethereum|decentrali[sz]ed)`), []string{
		"What does the smart contract do with my donation?",
		"Why is the blockchain used for crowdfunding?",
		"Can the campaign owner change the contract after launch?",
	}},
	{regexp.MustCompile(`(?i)\b(campaign|crowdfund|goal|deadline|milestone|fundrais)`), []string{
		"How do I create a campaign?",
		"What happens when a campaign reaches its goal?",
		"How do I post an update for my backers?",
	}},
}

var generalSuggestions = []string{
	"How does this crowdfunding platform work?",
	"How do I donate to a campaign?",
	"How do I create my own campaign?",
}

// suggestionsFor picks follow-ups from the first topics the question mentions.
func suggestionsFor(question string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range topics {
		if !t.match.MatchString(question) {
			continue
		}
		for _, s := range t.suggestions {
			if len(out) == maxSuggestions {
				return out
			}
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return generalSuggestions
	}
	return out
}

var levels = []string{"beginner", "intermediate", "advanced"}

var suggestedQuestions = map[string][]string{
	"beginner": {
		"What is crowdfunding on the blockchain?",
		"What is a crypto wallet and why do I need one?",
		"How do I install and set up MetaMask?",
		"How do I donate to a campaign?",
		"What are gas fees?",
	},
	"intermediate": {
		"How does the smart contract hold donated funds?",
		"How does withdrawal voting protect donors?",
		"How do I create a campaign with a funding goal and deadline?",
		"Where are campaign images stored?",
		"How can I track my donations on Etherscan?",
	},
	"advanced": {
		"How is a withdrawal request approved by donor votes?",
		"What prevents a campaign owner from withdrawing without approval?",
		"How are campaign images pinned on IPFS?",
		"How does signing a nonce log me in without a password?",
		"How can I verify the contract source on-chain?",
	},
}

// SuggestedQuestions returns the starter questions for one level, or every
// level when level is empty.
func SuggestedQuestions(level string) (map[string][]string, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		out := make(map[string][]string, len(levels))
		for _, l := range levels {
			out[l] = append([]string(nil), suggestedQuestions[l]...)
		}
		return out, nil
	}
	qs, ok := suggestedQuestions[level]
	if !ok {
		return nil, apperr.InvalidArg(fmt.Sprintf("unknown level %q, expected one of %s", level, strings.Join(levels, ", ")))
	}
	return map[string][]string{level: append([]string(nil), qs...)}, nil
}
