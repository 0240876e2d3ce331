package kafka

import (
	"context"
	"time"

	"tradingagents/internal/domain/decision"
)

// TopicDecisions carries one event per completed decision run.
const TopicDecisions = "agents.decisions"

// DecisionEvent is the wire form of a completed decision.
type DecisionEvent struct {
	RunID     string         `json:"run_id"`
	Symbol    string         `json:"symbol"`
	TradeDate string         `json:"trade_date"`
	Decision  decision.Token `json:"decision"`
	Model     string         `json:"model,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// DecisionPublisher publishes decision events keyed by symbol.
type DecisionPublisher struct {
	producer *Producer
}

func NewDecisionPublisher(producer *Producer) *DecisionPublisher {
	return &DecisionPublisher{producer: producer}
}

// PublishDecision emits the completed decision to the decisions topic.
func (p *DecisionPublisher) PublishDecision(ctx context.Context, d *decision.Decision, runID string) error {
	event := DecisionEvent{
		RunID:     runID,
		Symbol:    d.Symbol,
		TradeDate: d.TradeDate,
		Decision:  d.Decision,
		Model:     d.ModelID,
		Timestamp: time.Now().UTC(),
	}
	return p.producer.Publish(ctx, TopicDecisions, d.Symbol, event)
}
