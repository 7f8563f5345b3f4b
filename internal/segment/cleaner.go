package segment

import (
	"regexp"
	"strings"
)

// Cleaner normalizes raw page text before segmentation.
//
// Scanned hadith collections arrive with OCR artifacts, Arabic diacritics,
// and inconsistent record numbering. Cleaning first keeps the boundary
// patterns and metadata probes simple.
type Cleaner struct {
	preserveArabic bool
}

var (
	multiWhitespace = regexp.MustCompile(`[ \t]+`)
	multiBlankLines = regexp.MustCompile(`\n\s*\n`)
	controlChars    = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")

	// Harakat and the tatweel elongation mark carry no retrieval signal.
	arabicDiacritics = regexp.MustCompile("[ً-ٰٟ]")
	tatweel          = regexp.MustCompile("ـ")

	multiDots   = regexp.MustCompile(`\.{2,}`)
	multiCommas = regexp.MustCompile(`,{2,}`)

	urlPattern   = regexp.MustCompile(`https?://\S+`)
	emailPattern = regexp.MustCompile(`\S+@\S+`)

	recordWithNo = regexp.MustCompile(`(?i)(?:Hadis|Hadits|HR)[:.]?\s*No[:.]?\s*(\d+)`)
	bareNumber   = regexp.MustCompile(`(?i)\b(?:Nomor|No)[:.]?\s*(\d+)`)

	pageFooter = regexp.MustCompile(`(?i)(?:Halaman|Page)\s+\d+`)

	arabicLetterNormalizer = strings.NewReplacer(
		"أ", "ا", // alef with hamza above -> alef
		"إ", "ا", // alef with hamza below -> alef
		"آ", "ا", // alef with madda -> alef
		"ة", "ه", // teh marbuta -> heh
		"ى", "ي", // alef maksura -> yeh
	)

	ocrFixer = strings.NewReplacer(
		"‐", "-",
		"–", "-",
		"—", "-",
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
)

// NewCleaner creates a cleaner. preserveArabic keeps Arabic letters while
// stripping diacritics; disabling it skips Arabic handling entirely.
func NewCleaner(preserveArabic bool) *Cleaner {
	return &Cleaner{preserveArabic: preserveArabic}
}

// Clean normalizes whitespace, strips control characters, fixes common
// OCR substitutions, and removes URLs and email addresses.
func (c *Cleaner) Clean(text string) string {
	text = controlChars.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")

	if c.preserveArabic {
		text = arabicDiacritics.ReplaceAllString(text, "")
		text = tatweel.ReplaceAllString(text, "")
		text = arabicLetterNormalizer.Replace(text)
	}

	text = ocrFixer.Replace(text)
	text = multiDots.ReplaceAllString(text, ".")
	text = multiCommas.ReplaceAllString(text, ",")

	text = multiWhitespace.ReplaceAllString(text, " ")
	text = multiBlankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// NormalizeRecordNumbers rewrites the many observed spellings of a record
// reference ("Hadits No. 12", "HR: 12", "Nomor 12") into "Hadis 12" so a
// single boundary pattern catches them all.
func (c *Cleaner) NormalizeRecordNumbers(text string) string {
	text = recordWithNo.ReplaceAllString(text, "Hadis $1")
	text = bareNumber.ReplaceAllString(text, "Hadis $1")
	return text
}

// ExtractClean runs the full pipeline: cleaning, record-number
// normalization, and page header/footer removal.
func (c *Cleaner) ExtractClean(text string) string {
	text = c.Clean(text)
	text = c.NormalizeRecordNumbers(text)
	text = pageFooter.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
