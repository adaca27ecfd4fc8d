package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecore/storecore/pkg/apperr"
)

func TestNew_Validation(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name         string
		code         string
		discountType DiscountType
		value        decimal.Decimal
		expiresAt    time.Time
		wantField    string
	}{
		{
			name:         "blank code",
			code:         "   ",
			discountType: DiscountFixed,
			value:        decimal.NewFromInt(5),
			expiresAt:    future,
			wantField:    "code",
		},
		{
			name:         "zero value",
			code:         "SAVE",
			discountType: DiscountFixed,
			value:        decimal.Zero,
			expiresAt:    future,
			wantField:    "value",
		},
		{
			name:         "negative value",
			code:         "SAVE",
			discountType: DiscountPercentage,
			value:        decimal.NewFromInt(-10),
			expiresAt:    future,
			wantField:    "value",
		},
		{
			name:         "percentage above 100",
			code:         "SAVE",
			discountType: DiscountPercentage,
			value:        decimal.NewFromInt(101),
			expiresAt:    future,
			wantField:    "value",
		},
		{
			name:         "expiration in the past",
			code:         "SAVE",
			discountType: DiscountFixed,
			value:        decimal.NewFromInt(5),
			expiresAt:    time.Now().Add(-time.Minute),
			wantField:    "expires_at",
		},
		{
			name:         "unknown discount type",
			code:         "SAVE",
			discountType: DiscountType("BOGOF"),
			value:        decimal.NewFromInt(5),
			expiresAt:    future,
			wantField:    "discount_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.code, tt.discountType, tt.value, tt.expiresAt)

			var vErr *apperr.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestNew_NormalizesCode(t *testing.T) {
	c, err := New("  save10 ", DiscountPercentage, decimal.NewFromInt(10), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)
}

func TestNew_FixedValueAbove100Allowed(t *testing.T) {
	_, err := New("BIG", DiscountFixed, decimal.NewFromInt(150), time.Now().Add(time.Hour))
	require.NoError(t, err)
}

func TestUpdate_PreservesCode(t *testing.T) {
	c, err := New("SAVE10", DiscountPercentage, decimal.NewFromInt(10), time.Now().Add(time.Hour))
	require.NoError(t, err)

	updated, err := c.Update(DiscountFixed, decimal.NewFromInt(5), time.Now().Add(2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", updated.Code)
	assert.Equal(t, DiscountFixed, updated.DiscountType)
	// Original value untouched.
	assert.Equal(t, DiscountPercentage, c.DiscountType)
}

func TestUpdate_Invalid(t *testing.T) {
	c, err := New("SAVE10", DiscountPercentage, decimal.NewFromInt(10), time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = c.Update(DiscountPercentage, decimal.NewFromInt(120), time.Now().Add(time.Hour))
	assert.True(t, apperr.IsValidation(err))
}

func TestApplyDiscount(t *testing.T) {
	future := time.Now().Add(time.Hour)
	subtotal := decimal.NewFromInt(100)

	tests := []struct {
		name         string
		discountType DiscountType
		value        decimal.Decimal
		amount       decimal.Decimal
		want         string
	}{
		{"percentage 20 on 100", DiscountPercentage, decimal.NewFromInt(20), subtotal, "80"},
		{"percentage 100 on 100", DiscountPercentage, decimal.NewFromInt(100), subtotal, "0"},
		{"fixed 15 on 100", DiscountFixed, decimal.NewFromInt(15), subtotal, "85"},
		{"fixed 150 on 100 floors at zero", DiscountFixed, decimal.NewFromInt(150), subtotal, "0"},
		{"fixed on zero amount", DiscountFixed, decimal.NewFromInt(5), decimal.Zero, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New("TEST", tt.discountType, tt.value, future)
			require.NoError(t, err)

			got := c.ApplyDiscount(tt.amount)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"got %s, want %s", got, tt.want)
			assert.False(t, got.IsNegative())
		})
	}
}

func TestApplyDiscount_ExpiredIsNoOp(t *testing.T) {
	// Build the coupon via struct literal: New refuses past expirations.
	c := Coupon{
		Code:         "OLD",
		DiscountType: DiscountPercentage,
		Value:        decimal.NewFromInt(50),
		ExpiresAt:    time.Now().Add(-time.Minute),
	}

	subtotal := decimal.NewFromInt(100)
	assert.False(t, c.IsValid())
	assert.True(t, subtotal.Equal(c.ApplyDiscount(subtotal)))
}

func TestTimeToLive(t *testing.T) {
	c, err := New("TTL", DiscountFixed, decimal.NewFromInt(1), time.Now().Add(time.Hour))
	require.NoError(t, err)

	ttl := c.TimeToLive()
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}
