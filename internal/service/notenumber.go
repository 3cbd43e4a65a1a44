package service

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/theplant/luhn"
)

const (
	notePrefix = "INV-"
	// maxNoteLen совпадает с note_number VARCHAR (20)
	maxNoteLen = 20
)

// newNoteNumber builds "INV-" + yymmddHHMMSS + Luhn check digit. attempt shifts the base on collisions.
func newNoteNumber(now time.Time, attempt int) string {
	base, _ := strconv.Atoi(now.Format("060102150405"))
	base += attempt
	return fmt.Sprintf("%s%d%d", notePrefix, base, luhn.CalculateLuhn(base))
}

// validNoteNumber accepts any shop numbering that fits the column.
func validNoteNumber(number string) bool {
	n := utf8.RuneCountInString(number)
	return n > 0 && n <= maxNoteLen
}
