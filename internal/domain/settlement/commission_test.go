//go:build unit

package settlement_test

import (
	"testing"

	"bookingcore/internal/domain/settlement"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCommission(t *testing.T) {
	testCases := []struct {
		name     string
		subtotal int64
		percent  int32
		expected int64
	}{
		{name: "exact split", subtotal: 100000, percent: 12, expected: 12000},
		{name: "non-exact split rounds up", subtotal: 100001, percent: 12, expected: 12001},
		{name: "one cent still charged", subtotal: 1, percent: 12, expected: 1},
		{name: "zero subtotal", subtotal: 0, percent: 12, expected: 0},
		{name: "zero percent", subtotal: 100000, percent: 0, expected: 0},
		{name: "negative subtotal", subtotal: -100, percent: 12, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, settlement.CalculateCommission(tc.subtotal, tc.percent))
		})
	}
}

func TestCalculateRefundCommission(t *testing.T) {
	testCases := []struct {
		name               string
		originalCommission int64
		refundAmount       int64
		originalTotal      int64
		expected           int64
	}{
		{name: "proportional rounds up", originalCommission: 14815, refundAmount: 61728, originalTotal: 123456, expected: 7408},
		{name: "full refund reverses full commission", originalCommission: 12000, refundAmount: 100000, originalTotal: 100000, expected: 12000},
		{name: "over-large refund is capped", originalCommission: 30000, refundAmount: 300000, originalTotal: 250000, expected: 30000},
		{name: "zero refund", originalCommission: 12000, refundAmount: 0, originalTotal: 100000, expected: 0},
		{name: "tiny refund still reverses a cent", originalCommission: 12000, refundAmount: 1, originalTotal: 100000, expected: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := settlement.CalculateRefundCommission(tc.originalCommission, tc.refundAmount, tc.originalTotal)
			assert.Equal(t, tc.expected, got)
		})
	}
}
