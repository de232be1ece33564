package domain

// Interaction is one answered assistant question.
// Corresponds to interactions table in PostgreSQL.
type Interaction struct {
	ID        string        `json:"id"`         // uuid
	Message   string        `json:"message"`    // user text as received
	Symbol    *string       `json:"symbol"`     // detected symbol (nullable: nothing detected)
	Rule      string        `json:"rule"`       // detection rule that fired
	Category  QueryCategory `json:"category"`   // query category
	Intent    Intent        `json:"intent"`     // finer intent
	Response  string        `json:"response"`   // text returned to the user
	Source    string        `json:"source"`     // "composer" or "llm"
	CreatedAt int64         `json:"created_at"` // record creation timestamp (ms)
}
