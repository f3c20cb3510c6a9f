/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NameMapper transforms a dotted property path before it is rendered.
type NameMapper func(path string) string

// Identity leaves paths unchanged.
func Identity(path string) string { return path }

// CamelCase lower-cases the first letter of every path segment, matching
// the persisted JSON naming: "Data.UnitPrice" becomes "data.unitPrice".
func CamelCase(path string) string {
	return mapSegments(path, func(seg string) string {
		r, size := utf8.DecodeRuneInString(seg)
		if r == utf8.RuneError {
			return seg
		}
		return string(unicode.ToLower(r)) + seg[size:]
	})
}

// SnakeCase converts every segment to snake_case for relational columns:
// "UnitPrice" becomes "unit_price".
func SnakeCase(path string) string {
	return mapSegments(path, func(seg string) string {
		var sb strings.Builder
		runes := []rune(seg)
		for i, r := range runes {
			if unicode.IsUpper(r) {
				prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if i > 0 && (prevLower || (nextLower && unicode.IsUpper(runes[i-1]))) {
					sb.WriteByte('_')
				}
				r = unicode.ToLower(r)
			}
			sb.WriteRune(r)
		}
		return sb.String()
	})
}

func mapSegments(path string, f func(string) string) string {
	segs := strings.Split(path, ".")
	for i, s := range segs {
		segs[i] = f(s)
	}
	return strings.Join(segs, ".")
}
