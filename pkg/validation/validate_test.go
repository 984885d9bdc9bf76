package validation_test

import (
	"testing"

	"github.com/amirasaad/smartledger/pkg/domain"
	"github.com/amirasaad/smartledger/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `validate:"required"`
	Day  int    `validate:"min=1,max=31"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, validation.Struct(sample{Name: "rent", Day: 5}))

	err := validation.Struct(sample{Day: 40})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Name:required,Day:max", validation.Fields(err))
	assert.Empty(t, validation.Fields(domain.ErrNotFound))
}
