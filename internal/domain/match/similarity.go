package match

import "strings"

// NameSimilarity scores two free-text names in [0,1]. Symmetric.
//
// Tiers, first match wins:
//  1. equal after normalization -> 1.0
//  2. one name contains the other, comparing both the normalized forms and
//     the qualifier-stripped base names -> the better len(shorter)/len(longer)
//     of the two pairs
//  3. Jaccard similarity of the token sets (tokens longer than two
//     characters); 0 when either token set is empty.
func NameSimilarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	r, ok := containRatio(na, nb)
	if ba, bb := BaseName(a), BaseName(b); ba != "" && bb != "" {
		// A qualifier suffix must not dilute an otherwise identical name:
		// "City Hall (West Wing)" is still "City Hall".
		if br, bok := containRatio(ba, bb); bok && (!ok || br > r) {
			r, ok = br, true
		}
	}
	if ok {
		return r
	}

	ta, tb := tokens(na), tokens(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	return jaccard(ta, tb)
}

// containRatio returns len(shorter)/len(longer) when one string contains the
// other.
func containRatio(a, b string) (float64, bool) {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if !strings.Contains(longer, shorter) {
		return 0, false
	}
	return float64(len(shorter)) / float64(len(longer)), true
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
