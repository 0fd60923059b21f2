package headers

import (
	"fmt"
	"strings"
)

// kvScanner walks a "key=value[;key=value...]" list left to right.
// Rather than threading the unconsumed remainder through a pair of
// functions' return values, it keeps the cursor as state so parsing one
// pair reads as two method calls against the same scanner.
type kvScanner struct {
	rest string
	sep  byte
}

// takeKey consumes up to the next '=' and returns the key, or fails if
// the separator or end of string is hit first.
func (sc *kvScanner) takeKey() (string, error) {
	for i := 0; i < len(sc.rest); i++ {
		switch sc.rest[i] {
		case sc.sep:
			return "", fmt.Errorf("unable to read key (%v)", sc.rest)
		case '=':
			key := sc.rest[:i]
			sc.rest = sc.rest[i+1:]
			return key, nil
		}
	}
	return "", fmt.Errorf("unable to read key (%v)", sc.rest)
}

// takeValue consumes one value: a double-quoted run (which may itself
// contain sep) or an unquoted run up to the next sep.
func (sc *kvScanner) takeValue() (string, error) {
	if strings.HasPrefix(sc.rest, `"`) {
		unterminated := sc.rest
		closeAt := strings.IndexByte(sc.rest[1:], '"')
		if closeAt < 0 {
			return "", fmt.Errorf("apexes not closed (%v)", unterminated)
		}
		val := sc.rest[1 : closeAt+1]
		sc.rest = sc.rest[closeAt+2:]
		return val, nil
	}

	if idx := strings.IndexByte(sc.rest, sc.sep); idx >= 0 {
		val := sc.rest[:idx]
		sc.rest = sc.rest[idx:]
		return val, nil
	}

	val := sc.rest
	sc.rest = ""
	return val, nil
}

// advance drops one trailing separator and any run of spaces before the
// next pair.
func (sc *kvScanner) advance() {
	if strings.HasPrefix(sc.rest, string(sc.sep)) {
		sc.rest = sc.rest[1:]
	}
	sc.rest = strings.TrimLeft(sc.rest, " ")
}

// keyValParse parses a sep-delimited "key=value" list into a map,
// honoring double-quoted values (used by this package's Range grammar).
func keyValParse(s string, sep byte) (map[string]string, error) {
	sc := &kvScanner{rest: s, sep: sep}
	out := make(map[string]string)

	for sc.rest != "" {
		key, err := sc.takeKey()
		if err != nil {
			return nil, err
		}
		val, err := sc.takeValue()
		if err != nil {
			return nil, err
		}
		out[key] = val
		sc.advance()
	}

	return out, nil
}
