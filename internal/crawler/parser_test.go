package crawler

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"fashionetl/internal/logger"
	"fashionetl/internal/model"
)

var fixedNow = time.Date(2025, 5, 10, 10, 0, 0, 123456000, time.UTC)

func newTestExtractor() *Extractor {
	e := NewExtractor(logger.Discard())
	e.now = func() time.Time { return fixedNow }
	return e
}

func firstCard(t *testing.T, markup string) *goquery.Selection {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("failed to parse markup: %v", err)
	}
	card := doc.Find(cardSelector).First()
	if card.Length() == 0 {
		t.Fatal("no listing card in markup")
	}
	return card
}

func TestExtractCard_Complete(t *testing.T) {
	card := firstCard(t, `
		<div class="collection-card">
			<div class="product-details"><h3 class="product-title">Cool Item</h3></div>
			<div class="price-container">$49.99</div>
			<p>Rating: ⭐ 4.7</p>
			<p>Colors: 4 Colors</p>
			<p>Size: M</p>
			<p>Gender: Unisex</p>
		</div>`)

	rec, err := newTestExtractor().ExtractCard(card)
	if err != nil {
		t.Fatalf("ExtractCard() error = %v", err)
	}

	want := model.RawRecord{
		Title:     "Cool Item",
		Price:     "$49.99",
		Rating:    "⭐ 4.7",
		Colors:    "4",
		Size:      "M",
		Gender:    "Unisex",
		ScrapedAt: "2025-05-10T10:00:00.123456",
	}
	if rec != want {
		t.Errorf("ExtractCard() = %+v, want %+v", rec, want)
	}
}

func TestExtractCard_Missing(t *testing.T) {
	card := firstCard(t, `
		<div class="collection-card">
			<div class="product-details"><h3 class="product-title">   </h3></div>
		</div>`)

	rec, err := newTestExtractor().ExtractCard(card)
	if err != nil {
		t.Fatalf("ExtractCard() error = %v", err)
	}

	want := model.RawRecord{
		Title:     model.UnknownTitle,
		Price:     model.PriceNotAvailable,
		Rating:    model.InvalidRating,
		Colors:    model.NoColors,
		Size:      model.Unknown,
		Gender:    model.Unknown,
		ScrapedAt: "2025-05-10T10:00:00.123456",
	}
	if rec != want {
		t.Errorf("ExtractCard() = %+v, want %+v", rec, want)
	}
}

func TestExtractCard_TitleOutsideDetails(t *testing.T) {
	card := firstCard(t, `
		<div class="collection-card">
			<h3 class="product-title">Plain Tee</h3>
			<div class="price-container"><span class="price">$10.00</span>
			</div>
		</div>`)

	rec, err := newTestExtractor().ExtractCard(card)
	if err != nil {
		t.Fatalf("ExtractCard() error = %v", err)
	}
	if rec.Title != "Plain Tee" {
		t.Errorf("Title = %q, want %q", rec.Title, "Plain Tee")
	}
	if rec.Price != "$10.00" {
		t.Errorf("Price = %q, want %q", rec.Price, "$10.00")
	}
}

func TestExtractCard_MixedParagraphSkipped(t *testing.T) {
	card := firstCard(t, `
		<div class="collection-card">
			<h3 class="product-title">Jacket</h3>
			<p>Rating: <b>⭐ 4.0</b></p>
			<p><span>Size: L</span></p>
		</div>`)

	rec, err := newTestExtractor().ExtractCard(card)
	if err != nil {
		t.Fatalf("ExtractCard() error = %v", err)
	}
	if rec.Rating != model.InvalidRating {
		t.Errorf("Rating = %q, want sentinel for mixed-content paragraph", rec.Rating)
	}
	if rec.Size != "L" {
		t.Errorf("Size = %q, want %q from single-child paragraph", rec.Size, "L")
	}
}

func TestExtractCard_EmptySelection(t *testing.T) {
	_, err := newTestExtractor().ExtractCard(&goquery.Selection{})
	if err == nil {
		t.Fatal("ExtractCard() expected error for empty selection")
	}
}

func TestExtractPage(t *testing.T) {
	page := `<html><body>
		<div class="collection-card"><h3 class="product-title">A</h3><div class="price-container">$1.00</div></div>
		<div class="collection-card"><h3 class="product-title">B</h3><div class="price-container">$2.00</div></div>
		<div class="other-card"><h3 class="product-title">C</h3></div>
	</body></html>`

	records, err := newTestExtractor().ExtractPage([]byte(page))
	if err != nil {
		t.Fatalf("ExtractPage() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ExtractPage() returned %d records, want 2", len(records))
	}
	if records[0].Title != "A" || records[1].Title != "B" {
		t.Errorf("records out of document order: %q, %q", records[0].Title, records[1].Title)
	}
}

func TestExtractPage_NoCards(t *testing.T) {
	records, err := newTestExtractor().ExtractPage([]byte("<html><body><p>Nothing here</p></body></html>"))
	if err != nil {
		t.Fatalf("ExtractPage() error = %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("ExtractPage() = %v, want empty non-nil slice", records)
	}
}
