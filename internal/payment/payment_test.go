package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validUSDT = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

func TestLuhn(t *testing.T) {
	assert.True(t, Luhn("4111111111111111"))
	assert.True(t, Luhn("5555555555554444"))
	assert.False(t, Luhn("4111111111111112"))
	assert.False(t, Luhn(""))
	assert.False(t, Luhn("41111a1111111111"))
}

func TestNormalizeCard(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "4111111111111111", want: "4111111111111111"},
		{name: "grouped", in: "4111 1111 1111 1111", want: "4111111111111111"},
		{name: "dashes", in: "5555-5555-5555-4444", want: "5555555555554444"},
		{name: "bad checksum", in: "4111111111111112", wantErr: true},
		{name: "too short", in: "411111111111111", wantErr: true},
		{name: "letters", in: "4111abcd11111111", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDetails(MethodCard, tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCard)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeUSDT(t *testing.T) {
	got, err := NormalizeDetails(MethodUSDT, "  "+validUSDT+"\n")
	require.NoError(t, err)
	assert.Equal(t, validUSDT, got)

	bad := []string{
		"X" + validUSDT[1:],
		validUSDT[:33],
		validUSDT + "a",
		"T0" + validUSDT[2:],
	}
	for _, in := range bad {
		_, err := NormalizeDetails(MethodUSDT, in)
		assert.ErrorIs(t, err, ErrInvalidUSDT, in)
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("CARD")
	require.NoError(t, err)
	assert.Equal(t, MethodCard, m)
	assert.True(t, m.NeedsDetails())
	assert.False(t, MethodSite.NeedsDetails())

	_, err = ParseMethod("paypal")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "••••1111", Mask("4111111111111111"))
	assert.Equal(t, "abc", Mask("abc"))
}
