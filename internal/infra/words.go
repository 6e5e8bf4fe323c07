package infra

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrAmountOutOfRange is returned for negative amounts and amounts of ten
// thousand crore or more.
var ErrAmountOutOfRange = errors.New("amount out of range")

var wordsLimit = decimal.NewFromInt(100_000_000_000)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// IndianWords converts amounts in-process using the Indian numbering system.
type IndianWords struct{}

func (IndianWords) AmountInWords(_ context.Context, amount decimal.Decimal) (string, error) {
	return AmountToWords(amount)
}

// AmountToWords renders a rupee amount in Indian English, rounding to paise.
//
//	1180    → "One Thousand One Hundred and Eighty Rupees Only"
//	913183  → "Nine Lakh Thirteen Thousand One Hundred and Eighty Three Rupees Only"
//	11.80   → "Eleven Rupees and Eighty Paise Only"
func AmountToWords(amount decimal.Decimal) (string, error) {
	amount = amount.Round(2)
	if amount.IsNegative() || amount.GreaterThanOrEqual(wordsLimit) {
		return "", ErrAmountOutOfRange
	}

	rupees := amount.IntPart()
	paise := amount.Sub(decimal.NewFromInt(rupees)).Mul(decimal.NewFromInt(100)).IntPart()

	switch {
	case rupees == 0 && paise == 0:
		return "Zero Rupees Only", nil
	case rupees == 0:
		return convertUnder100(paise) + " Paise Only", nil
	}

	words := convertToIndianWords(rupees)
	if rupees == 1 {
		words += " Rupee"
	} else {
		words += " Rupees"
	}
	if paise > 0 {
		words += " and " + convertUnder100(paise) + " Paise"
	}
	return words + " Only", nil
}

func convertToIndianWords(n int64) string {
	if n == 0 {
		return ""
	}

	var parts []string

	// Crores (10,000,000); the count itself may run past 99
	if n >= 10000000 {
		parts = append(parts, convertToIndianWords(n/10000000)+" Crore")
		n %= 10000000
	}

	// Lakhs (100,000)
	if n >= 100000 {
		parts = append(parts, convertUnder100(n/100000)+" Lakh")
		n %= 100000
	}

	// Thousands (1,000)
	if n >= 1000 {
		parts = append(parts, convertUnder100(n/1000)+" Thousand")
		n %= 1000
	}

	// Hundreds
	if n >= 100 {
		parts = append(parts, ones[n/100]+" Hundred")
		n %= 100
	}

	// Remaining (1-99)
	if n > 0 {
		if len(parts) > 0 {
			parts = append(parts, "and "+convertUnder100(n))
		} else {
			parts = append(parts, convertUnder100(n))
		}
	}

	return strings.Join(parts, " ")
}

func convertUnder100(n int64) string {
	if n < 20 {
		return ones[n]
	}
	result := tens[n/10]
	if n%10 != 0 {
		result += " " + ones[n%10]
	}
	return result
}
