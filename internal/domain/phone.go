package domain

import "strings"

// NormalizeNumber strips everything except ASCII digits from a phone number.
func NormalizeNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// NumbersMatch reports whether two phone numbers refer to the same line.
// The relation is symmetric but not transitive, so callers must only ever use
// it for pairwise lookups, never to build equivalence classes.
//
// Two numbers match when their digit forms are equal, when one is the other
// with a single leading US country code "1" in front of ten digits, or when
// both have at least seven digits and the final seven are equal.
func NumbersMatch(a, b string) bool {
	na := NormalizeNumber(a)
	nb := NormalizeNumber(b)

	if na == nb {
		return true
	}

	if len(na) == 10 && len(nb) == 11 && strings.HasPrefix(nb, "1") {
		return na == nb[1:]
	}
	if len(nb) == 10 && len(na) == 11 && strings.HasPrefix(na, "1") {
		return nb == na[1:]
	}

	if len(na) >= 7 && len(nb) >= 7 {
		return na[len(na)-7:] == nb[len(nb)-7:]
	}

	return false
}
