package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flying3615/news-state/pkg/congress"
	"github.com/flying3615/news-state/pkg/news"
)

const newsSystemPrompt = `You are a financial market analyst specializing in identifying investment opportunities.
Your task is to filter and summarize news that presents actionable investment insights, strictly in JSON format.
Focus on news that could impact stock prices, create trading opportunities, or signal market trends.
DO NOT include any introductory text, conversational filler, or markdown formatting outside the JSON block.
Output MUST be a valid JSON array highlighting investment potential.`

const newsUserPromptHeader = `I will provide you with a list of market news items.
Your task is to:
1. Filter and select the most impactful news items that present stock investment opportunities or are strictly related to financial markets.
2. Focus on: earnings reports, product launches, regulatory approvals, mergers & acquisitions, major contracts, breakthrough technologies, sector trends, analyst upgrades/downgrades, and market-moving events.
3. EXCLUDE: general political news, sports, entertainment, minor regional events, or news without clear stock market implications.
4. Summarize each selected item in Simplified Chinese, highlighting the investment angle and potential market impact.
5. Extract the most relevant stock symbol or asset class (e.g. AAPL, NVDA, BTC, GOLD). If a specific stock is mentioned or strongly implied, ALWAYS include it. Return null only if no specific investment target exists.
6. Output MUST be a valid JSON array.

Structure:
[
  {
    "title": "news title in Chinese, focused on the investment angle",
    "summary": "summary in Chinese emphasizing investment opportunity or risk",
    "symbol": "NVDA" or null
  }
]

News items:
`

const tradeSystemPrompt = `You are a financial analyst specializing in legislative trading disclosures.
Summarize the investment signal in the provided trades as short plain text in Simplified Chinese.
Group activity by symbol, call out notable buys and sells, and note what the pattern may signal.
Do not use markdown code fences. Keep it under ten short lines.`

func newsUserPrompt(items []news.Item) string {
	var b strings.Builder
	b.WriteString(newsUserPromptHeader)
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s): %s\n", item.Title, item.PublishedAt.Format("2006-01-02 15:04"), item.Body)
	}
	b.WriteString("\nOutput JSON:\n")
	return b.String()
}

func tradeUserPrompt(trades []congress.Trade) string {
	var b strings.Builder
	b.WriteString("Recent legislative trading disclosures (symbol | date | owner | type | amount | current price):\n")
	for _, t := range trades {
		current := "n/a"
		if t.CurrentPrice > 0 {
			current = "$" + strconv.FormatFloat(t.CurrentPrice, 'f', -1, 64)
		}
		fmt.Fprintf(&b, "- %s | %s | %s | %s | $%.0f | %s\n",
			t.Symbol, t.TransactionDate, t.OwnerName, t.TransactionType, t.Amount, current)
	}
	return b.String()
}
