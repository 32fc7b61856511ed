// Package normalizer turns raw listing records into typed, validated rows.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"fashionetl/internal/logger"
	"fashionetl/internal/model"
	"fashionetl/internal/observability"
)

// Rejection reasons. A record failing any stage is dropped, never defaulted.
var (
	ErrTitleDisqualified = errors.New("title is missing or unknown")
	ErrInvalidPrice      = errors.New("price is not a number")
	ErrInvalidRating     = errors.New("rating is not a number")
	ErrInvalidColors     = errors.New("colors has no count")
	ErrInvalidTimestamp  = errors.New("scraped_at is not a timestamp")
	ErrMissingValue      = errors.New("record has a missing value")
	ErrNormalization     = errors.New("normalization failed")
)

// ScrapedAtLayout is ISO-8601 with milliseconds and no zone designator.
const ScrapedAtLayout = "2006-01-02T15:04:05.000"

// Stage names, also used as metric labels.
const (
	StageTitle     = "title"
	StagePrice     = "price"
	StageRating    = "rating"
	StageColors    = "colors"
	StageLabels    = "labels"
	StageScrapedAt = "scraped_at"
	StageComplete  = "complete"
	StageDuplicate = "duplicate"
)

// Report counts the records removed by each stage.
type Report struct {
	Input   int
	Output  int
	Dropped map[string]int
}

// row carries a record through the stages; each stage returns a new row.
type row struct {
	raw model.RawRecord
	out model.NormalizedRecord
}

type stage struct {
	name  string
	apply func(row) (row, error)
}

type Normalizer struct {
	multiplier decimal.Decimal
	log        *logger.Logger

	priceNoise    *regexp.Regexp
	numberPattern *regexp.Regexp
	intPattern    *regexp.Regexp
	sizeLabel     *regexp.Regexp
	genderLabel   *regexp.Regexp

	pipeline []stage
}

// New creates a normalizer converting source prices with multiplier.
func New(multiplier float64, log *logger.Logger) *Normalizer {
	n := &Normalizer{
		multiplier:    decimal.NewFromFloat(multiplier),
		log:           log,
		priceNoise:    regexp.MustCompile(`[^\d.]`),
		numberPattern: regexp.MustCompile(`(\d+\.\d+|\d+)`),
		intPattern:    regexp.MustCompile(`(\d+)`),
		sizeLabel:     regexp.MustCompile(`^\s*Size:\s*`),
		genderLabel:   regexp.MustCompile(`^\s*Gender:\s*`),
	}
	n.pipeline = []stage{
		{StageTitle, n.title},
		{StagePrice, n.price},
		{StageRating, n.rating},
		{StageColors, n.colors},
		{StageLabels, n.labels},
		{StageScrapedAt, n.scrapedAt},
		{StageComplete, complete},
	}
	return n
}

// Normalize runs every stage over the whole collection, then removes exact
// duplicates. Relative order is preserved. An empty result is a valid
// outcome; a non-nil error (wrapping ErrNormalization) means the batch was
// abandoned and the returned slice is nil.
func (n *Normalizer) Normalize(raw []model.RawRecord) (out []model.NormalizedRecord, report Report, err error) {
	report = Report{Input: len(raw), Dropped: map[string]int{}}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrNormalization, r)
			out = nil
			n.log.Error("normalization failed, discarding batch", "error", err)
		}
	}()

	if len(raw) == 0 {
		n.log.Info("no raw records to normalize")
		return []model.NormalizedRecord{}, report, nil
	}

	rows := make([]row, len(raw))
	for i, r := range raw {
		rows[i] = row{raw: r}
	}

	for _, st := range n.pipeline {
		kept := rows[:0:0]
		for _, r := range rows {
			next, err := st.apply(r)
			if err != nil {
				n.log.Debug("dropping record", "stage", st.name, "title", string(r.raw.Title), "reason", err)
				report.Dropped[st.name]++
				continue
			}
			kept = append(kept, next)
		}
		rows = kept
	}

	out = make([]model.NormalizedRecord, 0, len(rows))
	seen := make(map[model.NormalizedRecord]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.out]; dup {
			report.Dropped[StageDuplicate]++
			continue
		}
		seen[r.out] = struct{}{}
		out = append(out, r.out)
	}

	report.Output = len(out)
	for name, count := range report.Dropped {
		observability.RecordsDropped.WithLabelValues(name).Add(float64(count))
	}
	n.log.Info("normalization finished", "input", report.Input, "output", report.Output, "dropped", report.Dropped)

	return out, report, nil
}

func (n *Normalizer) title(r row) (row, error) {
	if strings.Contains(strings.ToLower(string(r.raw.Title)), "unknown") {
		return r, ErrTitleDisqualified
	}
	r.out.Title = string(r.raw.Title)
	return r, nil
}

func (n *Normalizer) price(r row) (row, error) {
	digits := n.priceNoise.ReplaceAllString(string(r.raw.Price), "")
	if digits == "" {
		return r, ErrInvalidPrice
	}

	amount, err := decimal.NewFromString(digits)
	if err != nil {
		return r, fmt.Errorf("%w: %q", ErrInvalidPrice, r.raw.Price)
	}

	r.out.Price, _ = amount.Mul(n.multiplier).Round(1).Float64()
	return r, nil
}

func (n *Normalizer) rating(r row) (row, error) {
	match := n.numberPattern.FindString(string(r.raw.Rating))
	if match == "" {
		return r, ErrInvalidRating
	}

	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return r, fmt.Errorf("%w: %q", ErrInvalidRating, r.raw.Rating)
	}

	r.out.Rating = val
	return r, nil
}

func (n *Normalizer) colors(r row) (row, error) {
	match := n.intPattern.FindString(string(r.raw.Colors))
	if match == "" {
		return r, ErrInvalidColors
	}

	val, err := strconv.Atoi(match)
	if err != nil {
		return r, fmt.Errorf("%w: %q", ErrInvalidColors, r.raw.Colors)
	}

	r.out.Colors = val
	return r, nil
}

func (n *Normalizer) labels(r row) (row, error) {
	r.out.Size = strings.TrimSpace(n.sizeLabel.ReplaceAllString(string(r.raw.Size), ""))
	r.out.Gender = strings.TrimSpace(n.genderLabel.ReplaceAllString(string(r.raw.Gender), ""))
	return r, nil
}

func (n *Normalizer) scrapedAt(r row) (row, error) {
	s := strings.TrimSpace(string(r.raw.ScrapedAt))
	if s == "" {
		return r, ErrInvalidTimestamp
	}

	ts, err := dateparse.ParseStrict(s)
	if err != nil {
		return r, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}

	r.out.ScrapedAt = ts.Format(ScrapedAtLayout)
	return r, nil
}

func complete(r row) (row, error) {
	if strings.TrimSpace(r.out.Title) == "" || r.out.ScrapedAt == "" {
		return r, ErrMissingValue
	}
	return r, nil
}
