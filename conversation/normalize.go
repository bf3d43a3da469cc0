package conversation

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ttacon/libphonenumber"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalize lowercases, strips accents and surrounding punctuation and
// collapses whitespace, so "¡Sí!" reads as "si". A leading sign is kept so
// "-3" is not read as "3".
func normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	out = strings.ToLower(strings.Join(strings.Fields(out), " "))
	out = strings.TrimLeftFunc(out, func(r rune) bool {
		return r != '-' && r != '+' && (unicode.IsPunct(r) || unicode.IsSymbol(r))
	})
	return strings.TrimRightFunc(out, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// parseIntIn accepts plain digits only; signs and decimals are rejected.
func parseIntIn(input string, lo, hi int) (int, bool) {
	if !isNumber(input) {
		return 0, false
	}
	v, err := strconv.Atoi(input)
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// parseIndex reads a 1-based choice among n options and returns it 0-based.
func parseIndex(input string, n int) (int, bool) {
	v, ok := parseIntIn(input, 1, n)
	return v - 1, ok
}

func isNumber(input string) bool {
	if input == "" {
		return false
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type keywords []string

func (k keywords) match(input string) bool {
	for _, w := range k {
		if input == w {
			return true
		}
	}
	return false
}

var (
	cancelWords   = keywords{"cancelar", "cancel", "cancelar pedido"}
	greetingWords = keywords{"hola", "buenas", "buen dia", "buenos dias", "buenas tardes", "buenas noches", "hi", "hello"}
	helpWords     = keywords{"menu", "ayuda", "help", "carta", "info"}
	orderWords    = keywords{"pedir", "pedido", "ordenar", "quiero pedir", "hacer pedido", "order"}
	yesWords      = keywords{"si", "s", "yes", "dale", "ok", "claro"}
	noWords       = keywords{"no", "n", "nop", "nada"}
	doneWords     = keywords{"listo", "no", "ninguno", "ninguna", "nada", "done", "terminar"}
	confirmWords  = keywords{"confirmar", "confirm", "confirmo"}
)

// CustomerPhone turns a channel address such as a WhatsApp wa_id into E.164.
// Addresses libphonenumber cannot validate are kept as "+digits".
func CustomerPhone(channelID, defaultRegion string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, channelID)
	if digits == "" {
		return ""
	}
	num, err := libphonenumber.Parse("+"+digits, defaultRegion)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return "+" + digits
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}
