package crawler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"fashionetl/internal/logger"
	"fashionetl/internal/model"
	"fashionetl/internal/observability"
)

const (
	cardSelector          = "div.collection-card"
	detailsTitleSelector  = ".product-details h3.product-title"
	fallbackTitleSelector = "h3.product-title"
	priceSelector         = "div.price-container"
)

// ErrMalformedCard marks a listing card whose markup could not be read.
var ErrMalformedCard = errors.New("malformed listing card")

// paragraphFields is the declarative rule table for the paragraph-derived fields.
var paragraphFields = []struct {
	rule FieldRule
	set  func(*model.RawRecord, model.RawField)
}{
	{RatingRule, func(r *model.RawRecord, v model.RawField) { r.Rating = v }},
	{ColorsRule, func(r *model.RawRecord, v model.RawField) { r.Colors = v }},
	{SizeRule, func(r *model.RawRecord, v model.RawField) { r.Size = v }},
	{GenderRule, func(r *model.RawRecord, v model.RawField) { r.Gender = v }},
}

// Extractor turns listing markup into raw records.
type Extractor struct {
	now func() time.Time
	log *logger.Logger
}

func NewExtractor(log *logger.Logger) *Extractor {
	return &Extractor{now: time.Now, log: log}
}

// ExtractPage parses page and extracts every listing card on it. A page
// without cards yields an empty slice and no error.
func (e *Extractor) ExtractPage(page []byte) ([]model.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	cards := doc.Find(cardSelector)
	records := make([]model.RawRecord, 0, cards.Length())

	cards.Each(func(i int, card *goquery.Selection) {
		rec, err := e.ExtractCard(card)
		if err != nil {
			e.log.Warn("dropping listing card", "card", i, "error", err)
			observability.CardsDropped.Inc()
			return
		}
		records = append(records, rec)
	})

	observability.CardsExtracted.Add(float64(len(records)))
	return records, nil
}

// ExtractCard reads one listing card. Missing fields become sentinels; the
// capture timestamp is taken when the card is read.
func (e *Extractor) ExtractCard(card *goquery.Selection) (rec model.RawRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMalformedCard, r)
		}
	}()

	if card == nil || card.Length() == 0 {
		return model.RawRecord{}, fmt.Errorf("%w: empty selection", ErrMalformedCard)
	}

	rec.Title = model.UnknownTitle
	titleTag := card.Find(detailsTitleSelector).First()
	if titleTag.Length() == 0 {
		titleTag = card.Find(fallbackTitleSelector).First()
	}
	if title := strippedText(titleTag); title != "" {
		rec.Title = model.RawField(title)
	}

	rec.Price = model.PriceNotAvailable
	if priceTag := card.Find(priceSelector).First(); priceTag.Length() > 0 {
		rec.Price = model.RawField(strippedText(priceTag))
	}

	texts := paragraphTexts(card)
	for _, f := range paragraphFields {
		f.set(&rec, f.rule.Extract(texts))
	}

	rec.ScrapedAt = model.RawField(e.now().Format(model.ScrapedAtLayout))
	return rec, nil
}

// strippedText concatenates the selection's text nodes, each trimmed.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

// paragraphTexts returns the text of every <p> in the card whose content is a
// single string (possibly wrapped in single-child elements). Paragraphs with
// mixed children are skipped.
func paragraphTexts(card *goquery.Selection) []string {
	var texts []string
	card.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text, ok := soleString(p.Get(0)); ok {
			texts = append(texts, text)
		}
	})
	return texts
}

func soleString(n *html.Node) (string, bool) {
	for {
		c := n.FirstChild
		if c == nil || c.NextSibling != nil {
			return "", false
		}
		if c.Type == html.TextNode {
			return c.Data, true
		}
		n = c
	}
}
