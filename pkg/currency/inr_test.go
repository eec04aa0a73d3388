package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroup(t *testing.T) {
	testCases := []struct {
		amount int64
		want   string
	}{
		{0, "0"},
		{200, "200"},
		{2750, "2,750"},
		{50000, "50,000"},
		{123456, "1,23,456"},
		{1234567, "12,34,567"},
		{100000000, "10,00,00,000"},
		{-2750, "-2,750"},
		{-999, "-999"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, Group(tc.amount), "amount %d", tc.amount)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "₹2,750", Format(2750))
	assert.Equal(t, "₹250", Format(250))
	assert.Equal(t, "-₹1,00,000", Format(-100000))
}
