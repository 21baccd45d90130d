// Package i18n holds the languages the assistant speaks and the phrases it
// says on its own (as opposed to phrases written by the NLU oracle).
//
// Languages are BCP 47 tags as speech devices use them ("hi-IN"). Any tag is
// matched to the closest supported language; unknown tags fall back to
// English.
package i18n

import (
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/hasti-ptl/Krishisahayk/internal/farm"
)

var (
	English = language.MustParse("en-IN")
	Hindi   = language.MustParse("hi-IN")
	Marathi = language.MustParse("mr-IN")
)

// Default is the language used when a requested one is not supported.
var Default = English

var supported = []language.Tag{English, Hindi, Marathi}

var matcher = language.NewMatcher(supported)

// Normalize returns the supported tag closest to code, as a string.
func Normalize(code string) string {
	return Match(code).String()
}

// Match returns the supported tag closest to code.
func Match(code string) language.Tag {
	tag, err := language.Parse(code)
	if err != nil {
		return Default
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Default
	}
	return supported[idx]
}

// Base returns the ISO-639-1 code ("hi") of the supported language closest to code.
func Base(code string) string {
	b, _ := Match(code).Base()
	return b.String()
}

// DisplayName is the language name used in oracle directives. Hindi and
// Marathi are qualified as "Pure" to discourage English loan words.
func DisplayName(code string) string {
	switch Match(code) {
	case Hindi:
		return "Pure Hindi"
	case Marathi:
		return "Pure Marathi"
	default:
		return "English"
	}
}

// ScriptName is the writing system a spoken message must use.
func ScriptName(code string) string {
	if usesDevanagari(Match(code)) {
		return "Devanagari"
	}
	return "Latin"
}

func usesDevanagari(tag language.Tag) bool {
	return tag == Hindi || tag == Marathi
}

// MixedScript reports whether text contains letters outside the script of
// code's language, or no letters of that script at all. Digits and
// punctuation are ignored.
func MixedScript(code, text string) bool {
	want, other := unicode.Latin, unicode.Devanagari
	if usesDevanagari(Match(code)) {
		want, other = unicode.Devanagari, unicode.Latin
	}
	seen := false
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Mc, r) {
			continue
		}
		if unicode.Is(other, r) {
			return true
		}
		if unicode.Is(want, r) {
			seen = true
		}
	}
	return !seen
}

const (
	keySaved   = "saved"
	keyOffline = "offline.confirmation"
)

func failureKey(kind farm.ErrorKind) string {
	return "failure." + string(kind)
}

var phrases = map[string]map[language.Tag]string{
	keySaved: {
		English: "Saved successfully.",
		Hindi:   "सफलतापूर्वक सहेजा गया।",
		Marathi: "यशस्वीरित्या जतन केले.",
	},
	keyOffline: {
		English: "Noted: sowing of tomato on 2 acres.",
		Hindi:   "मैंने नोट किया: २ एकड़ में टमाटर की बुवाई।",
		Marathi: "मी नोंदवले: २ एकरात टोमॅटो लावले.",
	},
	failureKey(farm.KindDeviceUnavailable): {
		English: "Voice input is not available on this device.",
		Hindi:   "इस उपकरण पर आवाज़ इनपुट उपलब्ध नहीं है।",
		Marathi: "या उपकरणावर आवाज इनपुट उपलब्ध नाही.",
	},
	failureKey(farm.KindCaptureError): {
		English: "I could not hear you. Please try again.",
		Hindi:   "मैं आपको सुन नहीं सका। कृपया फिर से प्रयास करें।",
		Marathi: "मला तुमचे ऐकू आले नाही. कृपया पुन्हा प्रयत्न करा.",
	},
	failureKey(farm.KindEmptyInput): {
		English: "Nothing was said. Please speak again.",
		Hindi:   "कुछ सुनाई नहीं दिया। कृपया फिर से बोलें।",
		Marathi: "काहीच ऐकू आले नाही. कृपया पुन्हा बोला.",
	},
	failureKey(farm.KindStructuringFailed): {
		English: "Something went wrong while understanding you.",
		Hindi:   "कुछ गलत हो गया।",
		Marathi: "काहीतरी चूक झाली.",
	},
	failureKey(farm.KindUnsupportedIntent): {
		English: "This request cannot be saved.",
		Hindi:   "यह अनुरोध सहेजा नहीं जा सकता।",
		Marathi: "ही विनंती जतन करता येणार नाही.",
	},
	failureKey(farm.KindPersistFailed): {
		English: "Could not save the record.",
		Hindi:   "रिकॉर्ड सहेजा नहीं जा सका।",
		Marathi: "नोंद जतन करता आली नाही.",
	},
	failureKey(farm.KindTelemetryUnavailable): {
		English: "Weather information is unavailable.",
		Hindi:   "मौसम की जानकारी उपलब्ध नहीं है।",
		Marathi: "हवामानाची माहिती उपलब्ध नाही.",
	},
}

var cat = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(English))
	for key, byLang := range phrases {
		for tag, msg := range byLang {
			if err := b.SetString(tag, key, msg); err != nil {
				panic("i18n: " + err.Error())
			}
		}
	}
	return b
}

func printer(code string) *message.Printer {
	return message.NewPrinter(Match(code), message.Catalog(cat))
}

// Saved is the phrase spoken after a record is committed.
func Saved(code string) string {
	return printer(code).Sprintf(keySaved)
}

// OfflineConfirmation is the confirmation of the offline stub intent.
func OfflineConfirmation(code string) string {
	return printer(code).Sprintf(keyOffline)
}

// FailureMessage is the human-readable message shown for a failed attempt.
func FailureMessage(code string, kind farm.ErrorKind) string {
	key := failureKey(kind)
	if _, ok := phrases[key]; !ok {
		key = failureKey(farm.KindStructuringFailed)
	}
	return printer(code).Sprintf(key)
}
