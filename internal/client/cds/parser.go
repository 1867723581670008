package cds

import (
	"errors"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// ParseListing extracts the numeric entries of a CDS directory listing.
// Every text node without a line break that starts with a digit is a candidate.
// Candidates lose a trailing slash and must be dot-separated numbers; the rest is ignored.
// The result is de-duplicated and sorted ascending by numeric tuple.
func ParseListing(r io.Reader) ([]string, error) {
	var (
		tokenizer = html.NewTokenizer(r)
		seen      = make(map[string]struct{})
		entries   []string
	)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}

			SortVersions(entries)

			return entries, nil
		case html.TextToken:
			entry, ok := listingEntry(string(tokenizer.Text()))
			if !ok {
				continue
			}

			if _, exists := seen[entry]; exists {
				continue
			}

			seen[entry] = struct{}{}
			entries = append(entries, entry)
		default:
			continue
		}
	}
}

func listingEntry(data string) (string, bool) {
	if data == "" || strings.Contains(data, "\n") || !isDigit(data[0]) {
		return "", false
	}

	entry := strings.TrimSuffix(strings.TrimSpace(data), "/")
	if !isNumericTuple(entry) {
		return "", false
	}

	return entry, true
}

func isNumericTuple(entry string) bool {
	if entry == "" {
		return false
	}

	for part := range strings.SplitSeq(entry, ".") {
		if part == "" {
			return false
		}

		for i := range len(part) {
			if !isDigit(part[i]) {
				return false
			}
		}
	}

	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// CompareVersions compares two dot-separated numeric strings segment by segment.
// A version that is a prefix of another sorts first, so 13.5 < 13.5.0.
// Segments are compared as arbitrarily long integers.
func CompareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range min(len(aParts), len(bParts)) {
		if c := compareNumbers(aParts[i], bParts[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(aParts) < len(bParts):
		return -1
	case len(aParts) > len(bParts):
		return 1
	default:
		return 0
	}
}

func compareNumbers(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}

		return 1
	}

	return strings.Compare(a, b)
}

// SortVersions sorts numeric version strings ascending in place.
func SortVersions(versions []string) {
	slices.SortStableFunc(versions, CompareVersions)
}

// Latest returns the newest entry of a sorted listing.
func Latest(entries []string) (string, bool) {
	if len(entries) == 0 {
		return "", false
	}

	return entries[len(entries)-1], true
}
