// Package currency formats rupee amounts the way Indian tickets print them.
package currency

import (
	"strconv"
	"strings"
)

const Symbol = "₹"

// Group inserts Indian digit separators: the last three digits form one
// group, every earlier group has two (1234567 -> 12,34,567).
func Group(amount int64) string {
	neg := amount < 0
	digits := strconv.FormatInt(amount, 10)
	if neg {
		digits = digits[1:]
	}
	if len(digits) <= 3 {
		if neg {
			return "-" + digits
		}
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)

	out := strings.Join(parts, ",") + "," + tail
	if neg {
		return "-" + out
	}
	return out
}

func Format(amount int64) string {
	if amount < 0 {
		return "-" + Symbol + Group(-amount)
	}
	return Symbol + Group(amount)
}
