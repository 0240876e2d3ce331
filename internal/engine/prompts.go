package engine

import (
	"fmt"
	"strings"

	"tradingagents/internal/adapters/ai"
	"tradingagents/internal/domain/decision"
)

// Prompt is a fully rendered system/user message pair for one agent call.
type Prompt struct {
	System string
	User   string
}

// Messages converts the prompt to the dispatcher wire form.
func (p Prompt) Messages() []ai.Message {
	return []ai.Message{ai.System(p.System), ai.User(p.User)}
}

const decisionSentinelInstruction = "End your response with exactly one line of the form " +
	"'FINAL TRANSACTION PROPOSAL: **BUY**', 'FINAL TRANSACTION PROPOSAL: **SELL**' or " +
	"'FINAL TRANSACTION PROPOSAL: **HOLD**'."

// section renders a titled block, substituting a placeholder when the body
// is empty so prompts keep a stable shape regardless of payload sparsity.
func section(title, body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		body = "(none)"
	}
	return "## " + title + "\n" + body
}

func join(sections ...string) string {
	return strings.Join(sections, "\n\n")
}

func memorySection(memories string) string {
	if strings.TrimSpace(memories) == "" {
		return section("Lessons From Past Decisions", "No past reflections available.")
	}
	return section("Lessons From Past Decisions", memories)
}

func header(s *decision.RunState) string {
	return fmt.Sprintf("Company: %s\nTrade date: %s", s.Symbol, s.TradeDate)
}

// MarketAnalystPrompt builds the technical analyst call. When the upstream
// technical report is missing, computed indicators (if any) stand in for it.
func MarketAnalystPrompt(s *decision.RunState, computedTechnicals string) Prompt {
	technical := s.Context.MarketTechnicalReport
	if strings.TrimSpace(technical) == "" {
		technical = computedTechnicals
	}
	return Prompt{
		System: "You are a market researcher specializing in technical analysis of equities. " +
			"Study the price history and indicator readings, identify the dominant trend, momentum, " +
			"support and resistance levels, and write a detailed report of the technical picture. " +
			"Do not simply say the trend is mixed; commit to a nuanced, well-argued read. " +
			"Finish with a markdown table summarizing the key observations.",
		User: join(
			header(s),
			section("Price History", s.Context.MarketPriceHistory),
			section("Technical Indicator Report", technical),
		),
	}
}

// SocialAnalystPrompt builds the sentiment analyst call.
func SocialAnalystPrompt(s *decision.RunState) Prompt {
	return Prompt{
		System: "You are a social media sentiment researcher. Analyze stock-specific news and " +
			"social discussion to gauge how retail investors and the broader public currently feel " +
			"about this company. Write a detailed report on sentiment, its drivers and its likely " +
			"effect on the stock, finishing with a markdown table of key points.",
		User: join(
			header(s),
			section("Stock News", s.Context.SocialStockNews),
			section("Reddit Discussion Summary", s.Context.SocialRedditSummary),
		),
	}
}

// NewsAnalystPrompt builds the news analyst call.
func NewsAnalystPrompt(s *decision.RunState) Prompt {
	return Prompt{
		System: "You are a news researcher covering macroeconomics and company events. Analyze " +
			"recent company, community and global news for developments relevant to trading this " +
			"stock, and write a detailed report of the current state of the world as it bears on " +
			"the company. Finish with a markdown table of key points.",
		User: join(
			header(s),
			section("Company News", s.Context.NewsCompany),
			section("Community News", s.Context.NewsReddit),
			section("Global News", s.Context.NewsGlobal),
		),
	}
}

// FundamentalsAnalystPrompt builds the fundamentals analyst call.
func FundamentalsAnalystPrompt(s *decision.RunState) Prompt {
	return Prompt{
		System: "You are a fundamentals researcher. Analyze the company's financial statements, " +
			"profile and insider activity, and write a detailed report of its fundamental health " +
			"to inform traders. Finish with a markdown table of key points.",
		User: join(
			header(s),
			section("Company Profile", s.Context.FundamentalsSummary),
			section("Balance Sheet", s.Context.FundamentalsBalanceSheet),
			section("Cash Flow Statement", s.Context.FundamentalsCashflow),
			section("Income Statement", s.Context.FundamentalsIncomeStmt),
			section("Insider Transactions", s.Context.FundamentalsInsiderTransactions),
		),
	}
}

func analystReportSections(s *decision.RunState) []string {
	return []string{
		section("Market Research Report", s.Report(decision.AnalystMarket)),
		section("Social Media Sentiment Report", s.Report(decision.AnalystSocial)),
		section("News Report", s.Report(decision.AnalystNews)),
		section("Fundamentals Report", s.Report(decision.AnalystFundamental)),
	}
}

// BullPrompt builds one bull researcher turn of the investment debate.
func BullPrompt(s *decision.RunState, memories string) Prompt {
	sections := append([]string{header(s)}, analystReportSections(s)...)
	sections = append(sections,
		section("Debate So Far", decision.RenderDebate(s.InvestmentDebate)),
		section("Bear's Last Argument", decision.LastUtterance(s.InvestmentDebate, decision.SpeakerBear)),
		memorySection(memories),
	)
	return Prompt{
		System: "You are the bull researcher advocating for investing in the company. Build a " +
			"strong, evidence-based case emphasizing growth potential, competitive advantages and " +
			"positive indicators, and directly rebut the bear's latest argument point by point. " +
			"Speak conversationally, as in a live debate.",
		User: join(sections...),
	}
}

// BearPrompt builds one bear researcher turn of the investment debate.
func BearPrompt(s *decision.RunState, memories string) Prompt {
	sections := append([]string{header(s)}, analystReportSections(s)...)
	sections = append(sections,
		section("Debate So Far", decision.RenderDebate(s.InvestmentDebate)),
		section("Bull's Last Argument", decision.LastUtterance(s.InvestmentDebate, decision.SpeakerBull)),
		memorySection(memories),
	)
	return Prompt{
		System: "You are the bear researcher arguing against investing in the company. Build a " +
			"strong, evidence-based case emphasizing risks, weaknesses and negative indicators, and " +
			"directly rebut the bull's latest argument point by point. Speak conversationally, as " +
			"in a live debate.",
		User: join(sections...),
	}
}

// InvestJudgePrompt builds the research manager adjudication call.
func InvestJudgePrompt(s *decision.RunState, memories string) Prompt {
	sections := append([]string{header(s)}, analystReportSections(s)...)
	sections = append(sections,
		section("Investment Debate Transcript", decision.RenderDebate(s.InvestmentDebate)),
		memorySection(memories),
	)
	return Prompt{
		System: "You are the research manager adjudicating the debate between the bull and bear " +
			"researchers. Critically weigh both sides, then commit to a clear recommendation to buy, " +
			"sell or hold; do not default to hold just because both sides have merit. Develop a " +
			"detailed investment plan for the trader: your recommendation, the rationale, and " +
			"concrete strategic actions.",
		User: join(sections...),
	}
}

// TraderPrompt builds the trader call that turns the investment plan into a
// firm position.
func TraderPrompt(s *decision.RunState, memories string) Prompt {
	sections := append([]string{header(s)}, analystReportSections(s)...)
	sections = append(sections,
		section("Proposed Investment Plan", s.InvestmentPlan),
		memorySection(memories),
	)
	return Prompt{
		System: "You are a trading agent responsible for converting the research manager's plan " +
			"into a firm trading decision for the company. Weigh the plan against market conditions " +
			"and past lessons, then state your specific recommendation and reasoning. " +
			decisionSentinelInstruction,
		User: join(sections...),
	}
}

func riskDebateSections(s *decision.RunState) []string {
	return []string{
		header(s),
		section("Trader's Plan", s.TraderPlan),
		section("Market Research Report", s.Report(decision.AnalystMarket)),
		section("Social Media Sentiment Report", s.Report(decision.AnalystSocial)),
		section("News Report", s.Report(decision.AnalystNews)),
		section("Fundamentals Report", s.Report(decision.AnalystFundamental)),
		section("Risk Debate So Far", decision.RenderDebate(s.RiskDebate)),
	}
}

// RiskyPrompt builds one aggressive turn of the risk debate.
func RiskyPrompt(s *decision.RunState) Prompt {
	sections := append(riskDebateSections(s),
		section("Safe Analyst's Last Argument", decision.LastUtterance(s.RiskDebate, decision.SpeakerSafe)),
		section("Neutral Analyst's Last Argument", decision.LastUtterance(s.RiskDebate, decision.SpeakerNeutral)),
	)
	return Prompt{
		System: "You are the risky risk analyst, a champion of bold, high-reward opportunities. " +
			"Argue why the trader's plan should embrace more risk, emphasizing upside and growth, " +
			"and rebut the safe and neutral analysts' latest arguments. Speak conversationally.",
		User: join(sections...),
	}
}

// SafePrompt builds one conservative turn of the risk debate.
func SafePrompt(s *decision.RunState) Prompt {
	sections := append(riskDebateSections(s),
		section("Risky Analyst's Last Argument", decision.LastUtterance(s.RiskDebate, decision.SpeakerRisky)),
		section("Neutral Analyst's Last Argument", decision.LastUtterance(s.RiskDebate, decision.SpeakerNeutral)),
	)
	return Prompt{
		System: "You are the safe risk analyst, prioritizing capital preservation and volatility " +
			"control. Argue where the trader's plan takes on too much risk, emphasizing protection " +
			"of assets, and rebut the risky and neutral analysts' latest arguments. Speak " +
			"conversationally.",
		User: join(sections...),
	}
}

// NeutralPrompt builds one balanced turn of the risk debate.
func NeutralPrompt(s *decision.RunState) Prompt {
	sections := append(riskDebateSections(s),
		section("Risky Analyst's Last Argument", decision.LastUtterance(s.RiskDebate, decision.SpeakerRisky)),
		section("Safe Analyst's Last Argument", decision.LastUtterance(s.RiskDebate, decision.SpeakerSafe)),
	)
	return Prompt{
		System: "You are the neutral risk analyst, weighing both benefits and drawbacks of the " +
			"trader's plan. Challenge both the risky and safe analysts where they are too extreme " +
			"and argue for a balanced, sustainable approach. Speak conversationally.",
		User: join(sections...),
	}
}

// RiskJudgePrompt builds the final portfolio manager adjudication call. Its
// output carries the decision sentinel the extractor looks for.
func RiskJudgePrompt(s *decision.RunState, memories string) Prompt {
	return Prompt{
		System: "You are the portfolio manager and risk management judge. Evaluate the risk " +
			"debate, decide the best course of action for the trader, and commit to a clear " +
			"recommendation to buy, sell or hold; do not default to hold just because all sides " +
			"have merit. Refine the trader's plan accordingly and explain your reasoning. " +
			decisionSentinelInstruction,
		User: join(
			header(s),
			section("Trader's Plan", s.TraderPlan),
			section("Risk Debate Transcript", decision.RenderDebate(s.RiskDebate)),
			memorySection(memories),
		),
	}
}
