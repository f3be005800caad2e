package interpret

// FirstObject returns the first top-level balanced {...} substring of s.
// Quotes and escapes are honoured only inside braces, so stray quotes in the
// surrounding prose do not hide the object. A '{' that never closes is
// skipped and the scan resumes right after it.
//
// Scanning bytes is safe for the ASCII delimiters because UTF-8 never reuses
// ASCII bytes inside multi-byte sequences.
func FirstObject(s string) (string, bool) {
	start, end, ok := nextObject(s, 0)
	if !ok {
		return "", false
	}
	return s[start:end], true
}

// nextObject finds the first balanced object starting at or after from and
// returns its bounds as s[start:end].
func nextObject(s string, from int) (start, end int, ok bool) {
	for from < len(s) {
		start, end, closed := scanFrom(s, from)
		if start < 0 {
			return 0, 0, false
		}
		if closed {
			return start, end, true
		}
		from = start + 1
	}
	return 0, 0, false
}

// scanFrom scans from the first '{' at or after from. start is -1 when there
// is none; closed reports whether the object was balanced before the end.
func scanFrom(s string, from int) (start, end int, closed bool) {
	depth := 0
	start = -1
	inString := false
	escape := false
	for i := from; i < len(s); i++ {
		b := s[i]
		if depth == 0 {
			if b == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return start, i + 1, true
			}
		}
	}
	return start, 0, false
}
