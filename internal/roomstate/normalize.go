package roomstate

import "strings"

// maxFieldLength is the truncation ceiling for draft/submission fields,
// per spec.md §9 ("Normalisation helpers").
const maxFieldLength = 48

// normalize is the single shared string-normalisation routine used by
// draft updates, submissions, and SHARED_10 key building, per spec.md §9:
// trim, collapse internal whitespace, truncate to maxFieldLength runes.
func normalize(s string) string {
	fields := strings.Fields(s)
	collapsed := strings.Join(fields, " ")
	r := []rune(collapsed)
	if len(r) > maxFieldLength {
		r = r[:maxFieldLength]
	}
	return string(r)
}

// normalizeKey additionally lowercases, for the case-insensitive
// comparisons used in name-uniqueness checks and SHARED_10 grouping.
func normalizeKey(s string) string {
	return strings.ToLower(normalize(s))
}
