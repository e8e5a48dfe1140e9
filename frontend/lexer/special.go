package lexer

// ParseSpecialValue decodes constant bitstrings written #hex or $binary,
// optionally ending in _. The result is left-aligned and terminated by a
// marker bit, so $_ and #_ yield 1<<63. A trailing _ drops the trailing
// zeros and the last one bit, which is how completion tags are written.
// It returns false when str is not such a literal or does not fit in 63 bits.
func ParseSpecialValue(str string) (uint64, bool) {
	n := len(str)
	if n <= 1 {
		return 0, false
	}
	var val uint64
	bits := 0
	i := 1
	switch str[0] {
	case '#':
		for ; i < n; i++ {
			c := int(str[i])
			if c == '_' {
				break
			}
			switch {
			case c >= '0' && c <= '9':
				c -= '0'
			case c >= 'A' && c <= 'F':
				c -= 'A' - 10
			case c >= 'a' && c <= 'f':
				c -= 'a' - 10
			default:
				return 0, false
			}
			if bits > 60 {
				return 0, false
			}
			val |= uint64(c) << (60 - bits)
			bits += 4
		}
	case '$':
		if str[1] != '_' {
			for ; i < n; i++ {
				c := int(str[i]) - '0'
				if c&^1 != 0 {
					return 0, false
				}
				if bits > 63 {
					return 0, false
				}
				val |= uint64(c) << (63 - bits)
				bits++
			}
		}
	default:
		return 0, false
	}
	if i < n-1 {
		return 0, false
	}
	if i == n-1 && bits != 0 {
		// trailing _
		for bits != 0 && (val>>(64-bits))&1 == 0 {
			bits--
		}
		if bits != 0 {
			bits--
		}
	}
	if bits == 64 {
		return 0, false
	}
	return val | 1<<(63-bits), true
}
