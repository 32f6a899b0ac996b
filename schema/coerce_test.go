package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"139750", 139750, false},
		{"  42", 42, false},
		{"-7", -7, false},
		{"+15", 15, false},
		{"12.7", 12, false},
		{"139750 USD", 139750, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-", 0, true},
		{"$100", 0, true},
		{"0x1F", 31, false},
		{"-0Xff px", -255, false},
		{"0x", 0, true},
		{"0", 0, false},
		{"99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInt(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce(t *testing.T) {
	v, err := Coerce("12.7", CoerceInt)
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	v, err = Coerce(" 12.7 ", CoerceFloat)
	require.NoError(t, err)
	assert.InDelta(t, 12.7, v, 1e-9)

	_, err = Coerce("n/a", CoerceFloat)
	assert.Error(t, err)
}

func TestSalariesSchema(t *testing.T) {
	s := Salaries()
	assert.Equal(t, []string{"rank", "discipline", "sex"}, s.DimensionKeys())
	assert.Equal(t, []string{"yrs.since.phd", "yrs.service", "salary"}, s.MeasureKeys())
	assert.Equal(t, "yrs.since.phd", s.GetDefaultMeasure())

	for _, m := range s.Measures {
		assert.Equal(t, CoerceInt, m.Coerce, m.Key)
	}

	_, ok := s.Measure("bonus")
	assert.False(t, ok)
}
