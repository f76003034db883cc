package input

import "time"

// typeGap paces synthetic keystrokes so applications keep up.
const typeGap = 20 * time.Millisecond

// plainRunes maps US-layout characters typed without Shift to key names.
var plainRunes = map[rune]string{
	' ':  "space",
	'\t': "Tab",
	'\n': "Return",
	'-':  "minus",
	'=':  "equal",
	'[':  "bracketleft",
	']':  "bracketright",
	'\\': "backslash",
	';':  "semicolon",
	'\'': "apostrophe",
	',':  "comma",
	'.':  "period",
	'/':  "slash",
	'`':  "grave",
}

// shiftedRunes maps US-layout characters to the key that produces them
// with Shift held.
var shiftedRunes = map[rune]string{
	'!': "1",
	'@': "2",
	'#': "3",
	'$': "4",
	'%': "5",
	'^': "6",
	'&': "7",
	'*': "8",
	'(': "9",
	')': "0",
	'_': "minus",
	'+': "equal",
	'{': "bracketleft",
	'}': "bracketright",
	'|': "backslash",
	':': "semicolon",
	'"': "apostrophe",
	'<': "comma",
	'>': "period",
	'?': "slash",
	'~': "grave",
}

// keyForRune resolves a typed character to the key name that produces it
// on a US layout and whether Shift must be held.
func keyForRune(r rune) (name string, shifted, ok bool) {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return string(r), false, true
	case r >= 'A' && r <= 'Z':
		return string(r - 'A' + 'a'), true, true
	}
	if name, ok := plainRunes[r]; ok {
		return name, false, true
	}
	if name, ok := shiftedRunes[r]; ok {
		return name, true, true
	}
	return "", false, false
}
