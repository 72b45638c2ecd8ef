package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatesFor(t *testing.T) {
	us := StatesFor("US")
	require.Len(t, us, 10)
	assert.Equal(t, State{Code: "AL", Name: "Alabama"}, us[0])
	assert.Equal(t, State{Code: "GA", Name: "Georgia"}, us[9])

	assert.Len(t, StatesFor("CA"), 10)
	assert.Equal(t, []State{
		{Code: "ENG", Name: "England"},
		{Code: "SCT", Name: "Scotland"},
		{Code: "WLS", Name: "Wales"},
		{Code: "NIR", Name: "Northern Ireland"},
	}, StatesFor("GB"))
}

func TestStatesFor_CaseInsensitive(t *testing.T) {
	assert.Equal(t, StatesFor("GB"), StatesFor(" gb "))
}

func TestStatesFor_Unknown(t *testing.T) {
	got := StatesFor("FR")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStatesFor_ReturnsCopy(t *testing.T) {
	got := StatesFor("GB")
	got[0].Name = "changed"
	assert.Equal(t, "England", StatesFor("GB")[0].Name)
}
