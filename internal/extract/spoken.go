package extract

import (
	"strconv"
	"strings"
)

var cardinals = map[string]int{
	"sıfır": 0, "bir": 1, "iki": 2, "üç": 3, "dört": 4,
	"beş": 5, "altı": 6, "yedi": 7, "sekiz": 8, "dokuz": 9,
	"on": 10, "yirmi": 20, "otuz": 30, "kırk": 40, "elli": 50,
	"altmış": 60, "yetmiş": 70, "seksen": 80, "doksan": 90,
}

var multipliers = map[string]int{"yüz": 100, "bin": 1000}

// spellNumbers replaces spelled out Turkish cardinals with digits:
// "iki yüz elli" -> "250", "altı , beş" -> "6 , 5". A lone "bir" is kept as
// a word unless it sits next to another number.
func spellNumbers(s string) string {
	words := strings.Fields(s)
	out := make([]string, 0, len(words))

	var total, current int
	inNumber := false
	flush := func() {
		if inNumber {
			out = append(out, strconv.Itoa(total+current))
		}
		total, current, inNumber = 0, 0, false
	}

	for i, w := range words {
		word := strings.TrimRight(w, ",.!?")
		trailing := w[len(word):]

		if word == "bir" && !nextToNumber(words, i) {
			flush()
			out = append(out, w)
			continue
		}

		if v, ok := cardinals[word]; ok {
			if inNumber && !fitsAfter(current, v) {
				flush()
			}
			current += v
			inNumber = true
		} else if m, ok := multipliers[word]; ok {
			if current == 0 {
				current = 1
			}
			if m == 1000 {
				total += current * m
				current = 0
			} else {
				current *= m
			}
			inNumber = true
		} else {
			flush()
			out = append(out, w)
			continue
		}

		if trailing != "" {
			flush()
			out[len(out)-1] += trailing
		}
	}
	flush()
	return strings.Join(out, " ")
}

// fitsAfter reports whether v continues the number built so far, as in
// "elli altı" (56), rather than starting a new one, as in "beş altı".
func fitsAfter(current, v int) bool {
	if v < 10 {
		return current%10 == 0
	}
	return current%100 == 0
}

func nextToNumber(words []string, i int) bool {
	for _, j := range []int{i - 1, i + 1} {
		if j < 0 || j >= len(words) {
			continue
		}
		if isNumberToken(strings.TrimRight(words[j], ",.!?")) || isNumberToken(words[j]) {
			return true
		}
	}
	return false
}

func isNumberToken(w string) bool {
	if w == "" {
		return false
	}
	if w != "bir" {
		if _, ok := cardinals[w]; ok {
			return true
		}
	}
	if _, ok := multipliers[w]; ok {
		return true
	}
	c := w[0]
	return isDigit(c) || c == '.' || c == ','
}
