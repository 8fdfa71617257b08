package lang

import (
	"strings"

	"github.com/inmind-gr/office-radar/internal/model"
)

// detectSampleRunes bounds how much of the text the detector inspects.
const detectSampleRunes = 100

// Detect classifies a text sample as English or Greek. It inspects at most
// the first 100 runes and returns Greek when more than 30% of them fall in
// the Greek alphabet blocks (accented vowels included). Empty or non-letter
// input defaults to English; Detect never fails.
func Detect(text string) model.Language {
	sample := []rune(strings.ToLower(text))
	if len(sample) == 0 {
		return model.LanguageEnglish
	}
	if len(sample) > detectSampleRunes {
		sample = sample[:detectSampleRunes]
	}

	greek := 0
	for _, r := range sample {
		if isGreekRune(r) {
			greek++
		}
	}

	if float64(greek) > float64(len(sample))*0.3 {
		return model.LanguageGreek
	}
	return model.LanguageEnglish
}

// isGreekRune reports whether r belongs to the Greek and Coptic or Greek
// Extended (polytonic accents) Unicode blocks.
func isGreekRune(r rune) bool {
	return (r >= 0x0370 && r <= 0x03FF) || (r >= 0x1F00 && r <= 0x1FFF)
}
