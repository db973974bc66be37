package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsInputError(t *testing.T) {
	assert.Equal(t, ErrInvalidAmount, AsInputError(fmt.Errorf("deposit: %w", ErrInvalidAmount)))
	assert.Equal(t, ErrBalanceOverflow, AsInputError(ErrBalanceOverflow))
	assert.Nil(t, AsInputError(ErrInvariantViolation))
	assert.Nil(t, AsInputError(errors.New("db down")))
}

func TestLookupInputError(t *testing.T) {
	assert.Equal(t, ErrInvalidAccountID, LookupInputError(ErrInvalidAccountID.Error()))
	assert.Nil(t, LookupInputError("internal server error"))
	assert.Nil(t, LookupInputError(""))
}
