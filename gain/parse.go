package gain

import (
	"regexp"
	"strconv"
	"strings"
)

const gainKey = "gain:"

// leadingNumber matches the decimal prefix of a token, so "0.42," reads as
// 0.42 the way engine log lines are usually punctuated.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseGain extracts the value of the first whitespace separated "gain:"
// token in line. A missing or malformed token yields 0.
func ParseGain(line string) float64 {
	for _, field := range strings.Fields(line) {
		if !strings.HasPrefix(field, gainKey) {
			continue
		}
		num := leadingNumber.FindString(field[len(gainKey):])
		if num == "" {
			return 0
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0
		}
		return v
	}
	return 0
}
