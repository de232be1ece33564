package domain

// TokenRecord is one entry of the token dictionary.
// Corresponds to the tokens table in PostgreSQL.
type TokenRecord struct {
	Symbol      string  `yaml:"symbol" json:"symbol" validate:"required,symbol"`
	Name        string  `yaml:"name" json:"name" validate:"required"`
	Decimals    int     `yaml:"decimals" json:"decimals" validate:"gte=0,lte=36"`
	Category    string  `yaml:"category" json:"category"`
	Description string  `yaml:"description" json:"description"`
	LogoURL     *string `yaml:"logo_url,omitempty" json:"logo_url,omitempty" validate:"omitempty,url"`
	Chain       string  `yaml:"chain,omitempty" json:"chain,omitempty" validate:"omitempty,oneof=ethereum linea solana bsc"`
	Address     *string `yaml:"address,omitempty" json:"address,omitempty"` // contract or mint address (nullable)
	Position    int     `yaml:"-" json:"-"`                                 // declaration order
}

// TokenAlias maps a lowercase alias to a canonical symbol.
// Corresponds to the token_aliases table in PostgreSQL.
type TokenAlias struct {
	Alias    string `yaml:"alias" json:"alias"`
	Symbol   string `yaml:"symbol" json:"symbol"`
	Position int    `yaml:"-" json:"position"` // construction order
}

// UnknownTokenCategory and UnknownTokenDescription describe symbols missing from the dictionary.
const (
	UnknownTokenCategory    = "Unknown"
	UnknownTokenDescription = "Information not available for this token."
)

// FallbackSymbol is used when no token could be detected in a message.
const FallbackSymbol = "CRYPTO"

// UnknownToken returns the record used for symbols missing from the dictionary.
func UnknownToken(symbol string) TokenRecord {
	return TokenRecord{
		Symbol:      symbol,
		Name:        symbol,
		Decimals:    18,
		Category:    UnknownTokenCategory,
		Description: UnknownTokenDescription,
	}
}
