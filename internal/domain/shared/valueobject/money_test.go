package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(1000000), VND)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, VND, m.Currency())

	_, err = NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("30000.50", VND)
	require.NoError(t, err)
	assert.Equal(t, "30000.5", m.Amount().String())

	_, err = NewMoneyFromString("not-a-number", VND)
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	subTotal := NewMoneyVNDFromInt(1000000)
	shipping := NewMoneyVNDFromInt(30000)
	discount := NewMoneyVNDFromInt(100000)

	total, err := subTotal.Add(shipping)
	require.NoError(t, err)
	assert.True(t, total.Amount().Equal(decimal.NewFromInt(1030000)))

	total, err = total.Subtract(discount)
	require.NoError(t, err)
	assert.True(t, total.Amount().Equal(decimal.NewFromInt(930000)))

	usd, err := NewMoneyFromInt(100, USD)
	require.NoError(t, err)
	_, err = subTotal.Add(usd)
	assert.Error(t, err)
	_, err = subTotal.Subtract(usd)
	assert.Error(t, err)
}

func TestMoney_Comparisons(t *testing.T) {
	small := NewMoneyVNDFromInt(100)
	large := NewMoneyVNDFromInt(200)

	less, err := small.LessThan(large)
	require.NoError(t, err)
	assert.True(t, less)

	greater, err := large.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, greater)

	assert.True(t, small.Equals(NewMoneyVNDFromInt(100)))
	assert.True(t, ZeroVND().IsZero())
	assert.True(t, small.IsPositive())
	assert.True(t, NewMoneyVNDFromInt(-1).IsNegative())
}

func TestMoney_MultiplyAndRound(t *testing.T) {
	price := NewMoneyVNDFromInt(1000)

	taxed := price.Multiply(decimal.NewFromFloat(0.085))
	assert.Equal(t, "85", taxed.Amount().String())

	rounded := NewMoneyVND(decimal.NewFromFloat(1000.555)).Round(2)
	assert.Equal(t, "1000.56", rounded.Amount().String())
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoneyVNDFromInt(1030000)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1030000","currency":"VND"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestCurrency_IsValid(t *testing.T) {
	assert.True(t, VND.IsValid())
	assert.True(t, USD.IsValid())
	assert.False(t, Currency("XYZ").IsValid())
	assert.Equal(t, VND, DefaultCurrency)
}
