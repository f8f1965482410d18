package scrape

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Languages the detector distinguishes between. A small set keeps the
// detector's memory footprint down and accuracy up.
var detectableLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// minDetectionLength is the minimum text length for a reliable detection.
const minDetectionLength = 40

// DetectLanguage returns the English name of the dominant language of the
// text ("English", "Spanish", ...) or "" when detection is not possible.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < minDetectionLength {
		return ""
	}

	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectableLanguages...).
			Build()
	})

	if language, ok := detector.DetectLanguageOf(text); ok {
		return language.String()
	}
	return ""
}
