package foundation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

type limits struct {
	Size int
	Mode string
}

func TestValidatorChain(t *testing.T) {
	chain := NewValidatorChain(
		NonNegative("size", func(l limits) int { return l.Size }),
	).Add(OneOf("mode", func(l limits) string { return l.Mode }, "fast", "slow"))

	require.True(t, chain.Validate(limits{Size: 0, Mode: "fast"}).Valid)

	res := chain.Validate(limits{Size: -1, Mode: "other"})
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 2)
	require.Equal(t, "non_negative", res.Errors[0].Code)
	require.Equal(t, "one_of", res.Errors[1].Code)
}

func TestValidationResult_ToError(t *testing.T) {
	require.NoError(t, Valid().ToError(errors.CategoryConfig))

	err := Invalid(FieldError{Field: "size", Message: "must not be negative", Value: -1}).
		ToError(errors.CategoryConfig)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.Contains(t, err.Error(), "size: must not be negative")

	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, "size", classified.Context()["field"])
}
