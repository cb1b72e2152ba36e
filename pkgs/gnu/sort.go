// Package gnu orders version strings the way GNU and Debian tooling does
// (the verrevcmp algorithm behind `sort -V` and dpkg).
//
// It is the fallback ordering for version tokens that are not semantic
// versions, such as "1.0~rc1" or "2.6.32.1".
package gnu

// Compare returns a negative number when a sorts before b, zero when they
// are equivalent and a positive number when a sorts after b.
func Compare(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		// Non-digit run, compared character by character.
		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			if d := order(at(a, i)) - order(at(b, j)); d != 0 {
				return d
			}
			i++
			j++
		}

		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}

		// Digit run, compared by value: the longer run wins, otherwise the
		// first differing digit decides.
		firstDiff := 0
		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			return firstDiff
		}
	}
	return 0
}

// Less reports whether a sorts strictly before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

func at(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}

// order ranks a character: '~' first, then end of string and digits,
// then letters, then everything else.
func order(c byte) int {
	switch {
	case c == '~':
		return -1
	case c == 0 || isDigit(c):
		return 0
	case isAlpha(c):
		return int(c)
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
