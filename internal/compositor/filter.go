package compositor

import "strconv"

// filterDestabilizing implements pass-through filter: replace
// DECSTBM with the compositor's own scroll region, and strip
// alternate-screen, Kitty keyboard protocol, CPR, DA, and focus-reporting
// sequences, all of which would otherwise destabilize the host terminal
// (it only owns rows [1, innerRows]).
func filterDestabilizing(b []byte, innerRows int) string {
	var out []byte
	i := 0
	n := len(b)
	for i < n {
		if b[i] != 0x1B {
			out = append(out, b[i])
			i++
			continue
		}
		seq, consumed := scanEscape(b[i:])
		if consumed == 0 {
			out = append(out, b[i])
			i++
			continue
		}
		if replacement, drop := classify(seq, innerRows); !drop {
			out = append(out, replacement...)
		}
		i += consumed
	}
	return string(out)
}

// scanEscape returns the full escape sequence starting at b[0] (which
// must be ESC) and how many bytes it consumes, or (nil, 0) if b does not
// hold a complete recognized sequence (caller then passes the ESC byte
// through unfiltered rather than blocking on a partial read).
func scanEscape(b []byte) ([]byte, int) {
	if len(b) < 2 {
		return nil, 0
	}
	if b[1] != '[' {
		// Not a CSI sequence; pass ESC alone through unfiltered.
		return nil, 0
	}
	i := 2
	for i < len(b) && b[i] >= 0x30 && b[i] <= 0x3F {
		i++
	}
	for i < len(b) && b[i] >= 0x20 && b[i] <= 0x2F {
		i++
	}
	if i >= len(b) {
		return nil, 0
	}
	// Include the final byte.
	return b[:i+1], i + 1
}

// classify decides what a CSI sequence becomes on the host stream: the
// bytes to emit (possibly a rewritten DECSTBM) and whether to drop it
// entirely.
func classify(seq []byte, innerRows int) (replacement []byte, drop bool) {
	if len(seq) < 3 {
		return seq, false
	}
	final := seq[len(seq)-1]
	params := string(seq[2 : len(seq)-1])

	switch final {
	case 'r':
		// DECSTBM: ESC [ <n>;<m> r — rewrite to our own scroll region.
		return []byte("\x1b[1;" + strconv.Itoa(innerRows) + "r"), false
	case 'h', 'l':
		switch params {
		case "?1049", "?47", "?1047", "?1004":
			// alt-screen toggles, focus reporting.
			return nil, true
		}
		return seq, false
	case 'n':
		if params == "6" {
			// cursor-position report request.
			return nil, true
		}
		return seq, false
	case 'c':
		if len(params) > 0 && params[0] == '>' {
			// device attributes (secondary DA).
			return nil, true
		}
		return seq, false
	case 'u':
		if len(params) > 0 && params[0] == '>' {
			// Kitty keyboard protocol.
			return nil, true
		}
		return seq, false
	default:
		return seq, false
	}
}
