package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Persona identifies which agent owns a memory row. Memories are never
// shared across personas.
type Persona string

const (
	PersonaBull      Persona = "bull"
	PersonaBear      Persona = "bear"
	PersonaManager   Persona = "manager"
	PersonaTrader    Persona = "trader"
	PersonaRiskJudge Persona = "risk_judge"
)

// Entry is one persona_memory row: a past situation and the lesson the
// persona drew from it.
type Entry struct {
	ID             uuid.UUID       `db:"id"`
	Persona        Persona         `db:"persona"`
	Symbol         string          `db:"symbol"`
	Situation      string          `db:"situation"`
	Recommendation string          `db:"recommendation"`
	Embedding      pgvector.Vector `db:"embedding"`
	TradeDate      string          `db:"trade_date"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Match is a retrieved entry with its cosine similarity to the query.
type Match struct {
	Entry
	Similarity float64 `db:"similarity"`
}
