package application

import (
	"math/big"
	"regexp"

	"github.com/shopspring/decimal"
)

const maxResourceNameLength = 128

var resourceNameRegexp = regexp.MustCompile(`^[0-9A-Za-z._-]+$`)

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// parseAmount converts a decimal amount expressed in asset units into base
// units at the given precision. The amount must be strictly positive and
// exactly representable, no rounding ever happens.
func parseAmount(amount string, precision uint32) (uint64, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, ErrAmountNotRepresentable
	}

	baseUnits := value.Shift(int32(precision))
	if !baseUnits.IsInteger() || baseUnits.Sign() <= 0 {
		return 0, ErrAmountNotRepresentable
	}
	if baseUnits.BigInt().Cmp(maxUint64) > 0 {
		return 0, ErrAmountNotRepresentable
	}

	return baseUnits.BigInt().Uint64(), nil
}

func validateResourceName(name string) error {
	if len(name) <= 0 || len(name) > maxResourceNameLength {
		return ErrInvalidResourceName
	}
	if !resourceNameRegexp.MatchString(name) {
		return ErrInvalidResourceName
	}
	return nil
}
