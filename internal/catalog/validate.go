package catalog

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/mr-tron/base58"

	"croak-assistant/internal/domain"
)

// Solana addresses are 32-byte ed25519 public keys.
const solanaAddressLen = 32

var (
	symbolPattern     = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	evmAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return symbolPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateRecord checks struct tags and the chain-specific address format.
func validateRecord(rec *domain.TokenRecord) error {
	if err := validate.Struct(rec); err != nil {
		return err
	}
	return validateAddress(rec.Chain, rec.Address)
}

// validateAddress checks that address is well-formed for chain.
// An address without a chain cannot be checked and is rejected.
func validateAddress(chain string, address *string) error {
	if address == nil {
		return nil
	}
	switch chain {
	case "solana":
		raw, err := base58.Decode(*address)
		if err != nil {
			return fmt.Errorf("decode solana address: %w", err)
		}
		if len(raw) != solanaAddressLen {
			return fmt.Errorf("solana address must be %d bytes, got %d", solanaAddressLen, len(raw))
		}
	case "ethereum", "linea", "bsc":
		if !evmAddressPattern.MatchString(*address) {
			return fmt.Errorf("malformed %s address %q", chain, *address)
		}
	default:
		return fmt.Errorf("address %q has no chain", *address)
	}
	return nil
}
