package pointer

// MatchGlob reports whether s matches pattern under the glob matcher from
// §4.6: '*' matches any run of zero or more characters within the
// segment, '?' matches exactly one character, and '\' escapes the
// character that follows it. Matching runs over the full rune alphabet
// of the segment, not just ASCII, and is backtracking-free: Matching is
// implemented with the standard two-pointer wildcard algorithm (track the
// most recent '*' and retry from just past it on a mismatch), which is
// linear in practice and always terminates.
func MatchGlob(pattern, s string) bool {
	p := []rune(pattern)
	t := []rune(s)
	pi, ti := 0, 0
	starIdx, matchIdx := -1, 0

	for ti < len(t) {
		if pi < len(p) && p[pi] == '\\' && pi+1 < len(p) {
			if p[pi+1] == t[ti] {
				pi += 2
				ti++
				continue
			}
		} else if pi < len(p) && p[pi] == '?' {
			pi++
			ti++
			continue
		} else if pi < len(p) && p[pi] == '*' {
			starIdx = pi
			matchIdx = ti
			pi++
			continue
		} else if pi < len(p) && p[pi] == t[ti] {
			pi++
			ti++
			continue
		}

		if starIdx >= 0 {
			pi = starIdx + 1
			matchIdx++
			ti = matchIdx
			continue
		}
		return false
	}

	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}
