package crawler

import (
	"regexp"
	"strings"

	"fashionetl/internal/model"
)

// FieldRule locates one card field among the card's paragraph texts.
type FieldRule struct {
	Name     string
	Keyword  string
	Pattern  *regexp.Regexp // exactly one capture group
	Fallback model.RawField
}

var (
	RatingRule = FieldRule{
		Name:     "Rating",
		Keyword:  "Rating",
		Pattern:  regexp.MustCompile(`Rating:\s*(⭐\s*\d+(?:\.\d+)?)`),
		Fallback: model.InvalidRating,
	}
	ColorsRule = FieldRule{
		Name:     "Colors",
		Keyword:  "Colors",
		Pattern:  regexp.MustCompile(`(\d+)\s*Colors`),
		Fallback: model.NoColors,
	}
	SizeRule = FieldRule{
		Name:     "Size",
		Keyword:  "Size",
		Pattern:  regexp.MustCompile(`Size:\s*([\p{L}\p{N}_]+)`),
		Fallback: model.Unknown,
	}
	GenderRule = FieldRule{
		Name:     "Gender",
		Keyword:  "Gender",
		Pattern:  regexp.MustCompile(`Gender:\s*([\p{L}\p{N}_]+)`),
		Fallback: model.Unknown,
	}
)

// Extract applies the rule to texts. See ExtractField.
func (r FieldRule) Extract(texts []string) model.RawField {
	return ExtractField(texts, r.Keyword, r.Pattern, r.Fallback)
}

// ExtractField scans texts in order and stops at the first one containing
// keyword. That text either yields the trimmed first capture group of pattern
// or, when it does not match, the fallback; later texts are not consulted.
// Without any keyword-bearing text the fallback is returned as well.
func ExtractField(texts []string, keyword string, pattern *regexp.Regexp, fallback model.RawField) model.RawField {
	for _, text := range texts {
		if !strings.Contains(text, keyword) {
			continue
		}

		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			return fallback
		}
		return model.RawField(strings.TrimSpace(match[1]))
	}

	return fallback
}
