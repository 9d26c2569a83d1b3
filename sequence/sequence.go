// Package sequence parses the frame-list mini-language used for animation
// sequences and export selections, e.g. "0-3,5,7".
package sequence

import "strings"

// MaxLen bounds the number of indices one text can expand to.
const MaxLen = 1 << 14

// Parse splits text on commas. A token containing '-' is an inclusive
// "start-end" range and contributes nothing when start > end; any other token
// is a single index. Tokens that do not start with a number are skipped.
// Order and duplicates are preserved, no range checking happens here.
func Parse(text string) []int {
	out := []int{}
	if strings.TrimSpace(text) == "" {
		return out
	}

	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			bounds := strings.Split(part, "-")
			start, okStart := leadingInt(bounds[0])
			end, okEnd := leadingInt(bounds[1])
			if !okStart || !okEnd {
				continue
			}
			for i := start; i <= end && len(out) < MaxLen; i++ {
				out = append(out, i)
			}
			continue
		}

		if n, ok := leadingInt(part); ok && len(out) < MaxLen {
			out = append(out, n)
		}
	}

	return out
}

// leadingInt reads an optionally signed run of decimal digits from the start
// of s, ignoring anything after it ("12px" is 12).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if n > 1<<24 {
			break
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}

	return n, true
}

// Filter drops indices outside [0, count).
func Filter(seq []int, count int) []int {
	out := make([]int, 0, len(seq))
	for _, i := range seq {
		if i >= 0 && i < count {
			out = append(out, i)
		}
	}

	return out
}

// All returns 0..count-1.
func All(count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = i
	}

	return out
}
