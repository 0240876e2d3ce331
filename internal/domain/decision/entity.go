package decision

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradingagents/pkg/errors"
)

// Analyst identifies one of the four analyst personas.
type Analyst string

const (
	AnalystFundamental Analyst = "fundamental"
	AnalystMarket      Analyst = "market"
	AnalystNews        Analyst = "news"
	AnalystSocial      Analyst = "social"
)

// AllAnalysts returns the default analyst selection, in stable order.
func AllAnalysts() []Analyst {
	return []Analyst{AnalystFundamental, AnalystMarket, AnalystNews, AnalystSocial}
}

// Valid checks if the analyst id is one of the closed set.
func (a Analyst) Valid() bool {
	switch a {
	case AnalystFundamental, AnalystMarket, AnalystNews, AnalystSocial:
		return true
	}
	return false
}

// Token is the final decision token extracted from the risk judge verdict.
type Token string

const (
	TokenBuy        Token = "BUY"
	TokenSell       Token = "SELL"
	TokenHold       Token = "HOLD"
	TokenNoDecision Token = "NO DECISION"
)

// ContextBundle is the immutable input context materialized upstream. Each
// field is a free-form report string; the core never interprets them
// structurally.
type ContextBundle struct {
	MarketPriceHistory    string `json:"market_price_history,omitempty"`
	MarketTechnicalReport string `json:"market_technical_report,omitempty"`

	SocialStockNews     string `json:"social_stock_news,omitempty"`
	SocialRedditSummary string `json:"social_reddit_summary,omitempty"`

	NewsCompany string `json:"news_company,omitempty"`
	NewsReddit  string `json:"news_reddit,omitempty"`
	NewsGlobal  string `json:"news_global,omitempty"`

	FundamentalsSummary             string `json:"fundamentals_summary,omitempty"`
	FundamentalsBalanceSheet        string `json:"fundamentals_balance_sheet,omitempty"`
	FundamentalsCashflow            string `json:"fundamentals_cashflow,omitempty"`
	FundamentalsIncomeStmt          string `json:"fundamentals_income_stmt,omitempty"`
	FundamentalsInsiderTransactions string `json:"fundamentals_insider_transactions,omitempty"`
}

// Payload is the request a single orchestrator run consumes.
type Payload struct {
	Symbol    string        `json:"symbol"`
	TradeDate string        `json:"tradeDate"`
	Context   ContextBundle `json:"context"`
	ModelID   string        `json:"modelId,omitempty"`
	Analysts  []Analyst     `json:"analysts,omitempty"`
}

// Normalize validates the payload and applies defaults: symbol upper-cased,
// analysts defaulted to all four, duplicates removed.
func (p *Payload) Normalize() error {
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	if p.Symbol == "" {
		return errors.Wrap(errors.ErrInvalidInput, "symbol is required")
	}

	p.TradeDate = strings.TrimSpace(p.TradeDate)
	if _, err := time.Parse("2006-01-02", p.TradeDate); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "tradeDate must be YYYY-MM-DD, got %q", p.TradeDate)
	}

	if len(p.Analysts) == 0 {
		p.Analysts = AllAnalysts()
		return nil
	}

	seen := make(map[Analyst]struct{}, len(p.Analysts))
	deduped := p.Analysts[:0]
	for _, a := range p.Analysts {
		if !a.Valid() {
			return errors.Wrapf(errors.ErrInvalidInput, "unknown analyst %q", a)
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		deduped = append(deduped, a)
	}
	p.Analysts = deduped
	return nil
}

// Decision is the structured result returned to callers and serialized into
// the persisted payload.
type Decision struct {
	Symbol    string `json:"symbol"`
	TradeDate string `json:"tradeDate"`

	Decision           Token  `json:"decision"`
	FinalTradeDecision string `json:"finalTradeDecision"`

	InvestmentPlan  string `json:"investmentPlan"`
	TraderPlan      string `json:"traderPlan"`
	InvestmentJudge string `json:"investmentJudge"`
	RiskJudge       string `json:"riskJudge"`

	MarketReport       string `json:"marketReport"`
	SentimentReport    string `json:"sentimentReport"`
	NewsReport         string `json:"newsReport"`
	FundamentalsReport string `json:"fundamentalsReport"`

	ModelID     string    `json:"modelId,omitempty"`
	Analysts    []Analyst `json:"analysts,omitempty"`
	DebugPrompt string    `json:"debugPrompt,omitempty"`
}

// Run is the ta_run row: one per orchestrator invocation.
type Run struct {
	ID                  uuid.UUID `db:"id"`
	RunID               string    `db:"run_id"`
	Symbol              string    `db:"symbol"`
	TradeDate           string    `db:"trade_date"`
	Model               string    `db:"model"`
	PromptHash          string    `db:"prompt_hash"`
	OrchestratorVersion string    `db:"orchestrator_version"`
	LogsPath            string    `db:"logs_path"`
	CreatedAt           time.Time `db:"created_at"`
}

// Record is the ta_decision row: the frozen result of a run.
type Record struct {
	ID                  uuid.UUID `db:"id"`
	RunID               string    `db:"run_id"`
	Symbol              string    `db:"symbol"`
	TradeDate           string    `db:"trade_date"`
	DecisionToken       Token     `db:"decision_token"`
	InvestmentPlan      string    `db:"investment_plan"`
	TraderPlan          string    `db:"trader_plan"`
	RiskJudge           string    `db:"risk_judge"`
	Payload             []byte    `db:"payload"`
	RawText             string    `db:"raw_text"`
	Model               string    `db:"model"`
	PromptHash          string    `db:"prompt_hash"`
	OrchestratorVersion string    `db:"orchestrator_version"`
	CreatedAt           time.Time `db:"created_at"`
}

// Outcome is the ta_outcome row; populated externally, never by the core.
type Outcome struct {
	ID             uuid.UUID       `db:"id"`
	DecisionID     uuid.UUID       `db:"decision_id"`
	Horizon        string          `db:"horizon"`
	RealizedReturn decimal.Decimal `db:"realized_return"`
	MaxDrawdown    decimal.Decimal `db:"max_drawdown"`
	Label          string          `db:"label"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Page is one page of decision records for a symbol.
type Page struct {
	Items      []*Record  `json:"items"`
	NextCursor *time.Time `json:"nextCursor,omitempty"`
}

const (
	// ListLimitDefault applies when the requested limit is out of range.
	ListLimitDefault = 5
	// ListLimitMax caps a single page.
	ListLimitMax = 20
)

// ClampLimit normalizes a requested page size into [1, ListLimitMax];
// non-positive values fall back to the default.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return ListLimitDefault
	}
	if limit > ListLimitMax {
		return ListLimitMax
	}
	return limit
}
