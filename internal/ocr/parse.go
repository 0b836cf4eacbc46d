package ocr

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Extraction is the structured part recovered from receipt text.
type Extraction struct {
	Amount   *float64   `json:"amount,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Provider *string    `json:"provider,omitempty"`
}

var (
	moneyPattern = regexp.MustCompile(`(\d{1,3}(?:[ \x{00a0}]\d{3})+|\d+)[.,](\d{2})\b`)
	totalPattern = regexp.MustCompile(`(?i)(итого|всего|к оплате|сумма|total|amount due|balance due|grand total)`)

	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dottedDate       = regexp.MustCompile(`\b(\d{2})[./](\d{2})[./](\d{4})\b`)
	shortDottedDate  = regexp.MustCompile(`\b(\d{2})[./](\d{2})[./](\d{2})\b`)
	providerMaxRunes = 100

	thousandsSeparators = strings.NewReplacer(" ", "", "\u00a0", "")
)

// ParseReceiptText recovers amount, date and provider from plain OCR text.
// The amount is taken from the first line carrying a total keyword, falling
// back to the largest money value in the text. Dates are read day first.
func ParseReceiptText(text string) Extraction {
	var ex Extraction
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		if !totalPattern.MatchString(line) {
			continue
		}
		if amounts := findAmounts(line); len(amounts) > 0 {
			v := amounts[len(amounts)-1]
			ex.Amount = &v
			break
		}
	}
	if ex.Amount == nil {
		amounts := findAmounts(text)
		if len(amounts) > 0 {
			sort.Float64s(amounts)
			v := amounts[len(amounts)-1]
			ex.Amount = &v
		}
	}

	ex.Date = findDate(text)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !hasLetters(line) {
			continue
		}
		if utf8.RuneCountInString(line) > providerMaxRunes {
			line = string([]rune(line)[:providerMaxRunes])
		}
		ex.Provider = &line
		break
	}

	return ex
}

func findAmounts(s string) []float64 {
	var amounts []float64
	for _, idx := range moneyPattern.FindAllStringSubmatchIndex(s, -1) {
		// "15.03.2024" is a date, not 15.03
		if rest := s[idx[1]:]; len(rest) > 1 && (rest[0] == '.' || rest[0] == '/') && rest[1] >= '0' && rest[1] <= '9' {
			continue
		}
		whole := thousandsSeparators.Replace(s[idx[2]:idx[3]])
		v, err := strconv.ParseFloat(whole+"."+s[idx[4]:idx[5]], 64)
		if err == nil {
			amounts = append(amounts, v)
		}
	}
	return amounts
}

func findDate(s string) *time.Time {
	build := func(y, m, d int) *time.Time {
		t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		if t.Year() != y || int(t.Month()) != m || t.Day() != d {
			return nil
		}
		return &t
	}
	atoi := func(v string) int {
		n, _ := strconv.Atoi(v)
		return n
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		if t := build(atoi(m[1]), atoi(m[2]), atoi(m[3])); t != nil {
			return t
		}
	}
	if m := dottedDate.FindStringSubmatch(s); m != nil {
		if t := build(atoi(m[3]), atoi(m[2]), atoi(m[1])); t != nil {
			return t
		}
	}
	if m := shortDottedDate.FindStringSubmatch(s); m != nil {
		if t := build(2000+atoi(m[3]), atoi(m[2]), atoi(m[1])); t != nil {
			return t
		}
	}
	return nil
}

func hasLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

type rawPayload struct {
	Engine string `json:"engine"`
	Text   string `json:"text"`
	Extraction
}

// TextResult turns the text produced by engine into a Result. Empty text is
// a failure; text without recognisable fields is still a success.
func TextResult(engine, text string) *Result {
	text = sanitizeUTF8(strings.TrimSpace(text))
	if text == "" {
		return Failure("no text extracted by " + engine)
	}

	ex := ParseReceiptText(text)
	return ExtractionResult(engine, text, ex)
}

// ExtractionResult wraps an already structured extraction.
func ExtractionResult(engine, text string, ex Extraction) *Result {
	payload, err := json.Marshal(rawPayload{Engine: engine, Text: text, Extraction: ex})
	if err != nil {
		return Failure("failed to encode OCR payload: " + err.Error())
	}
	raw := string(payload)

	return &Result{
		Success:           true,
		RawJSON:           &raw,
		ExtractedAmount:   ex.Amount,
		ExtractedDate:     ex.Date,
		ExtractedProvider: ex.Provider,
	}
}

// sanitizeUTF8 drops invalid UTF-8 sequences so PostgreSQL accepts the text.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}

	return result.String()
}
