package normalizer

import (
	"errors"
	"reflect"
	"testing"

	"fashionetl/internal/logger"
	"fashionetl/internal/model"
)

func newTestNormalizer() *Normalizer {
	return New(16000, logger.Discard())
}

func validRaw() model.RawRecord {
	return model.RawRecord{
		Title:     "Cool Item",
		Price:     "$49.99",
		Rating:    "Rating: ⭐ 4.7",
		Colors:    "4 Colors",
		Size:      "Size: M",
		Gender:    "Gender: Unisex",
		ScrapedAt: "2025-05-10 10:00:00",
	}
}

func TestNormalize_ValidRecord(t *testing.T) {
	out, report, err := newTestNormalizer().Normalize([]model.RawRecord{validRaw()})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := []model.NormalizedRecord{{
		Title:     "Cool Item",
		Price:     799840.0,
		Rating:    4.7,
		Colors:    4,
		Size:      "M",
		Gender:    "Unisex",
		ScrapedAt: "2025-05-10T10:00:00.000",
	}}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("Normalize() = %+v, want %+v", out, want)
	}
	if report.Input != 1 || report.Output != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestNormalize_Drops(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.RawRecord)
		stage  string
	}{
		{"sentinel title", func(r *model.RawRecord) { r.Title = model.UnknownTitle }, StageTitle},
		{"title containing unknown", func(r *model.RawRecord) { r.Title = "The UNKNOWN Soldier Tee" }, StageTitle},
		{"invalid price", func(r *model.RawRecord) { r.Price = "INVALID" }, StagePrice},
		{"price sentinel", func(r *model.RawRecord) { r.Price = model.PriceNotAvailable }, StagePrice},
		{"price with two dots", func(r *model.RawRecord) { r.Price = "$1.2.3" }, StagePrice},
		{"invalid rating", func(r *model.RawRecord) { r.Rating = model.InvalidRating }, StageRating},
		{"colors sentinel", func(r *model.RawRecord) { r.Colors = model.NoColors }, StageColors},
		{"bad timestamp", func(r *model.RawRecord) { r.ScrapedAt = "yesterday-ish" }, StageScrapedAt},
		{"empty timestamp", func(r *model.RawRecord) { r.ScrapedAt = "" }, StageScrapedAt},
		{"blank title", func(r *model.RawRecord) { r.Title = "  " }, StageComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRaw()
			tt.mutate(&rec)

			out, report, err := newTestNormalizer().Normalize([]model.RawRecord{rec})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if out == nil || len(out) != 0 {
				t.Errorf("Normalize() = %v, want empty non-nil result", out)
			}
			if report.Dropped[tt.stage] != 1 {
				t.Errorf("Dropped = %v, want one drop at %q", report.Dropped, tt.stage)
			}
		})
	}
}

func TestNormalize_UnknownTitleDroppedRegardlessOfOtherFields(t *testing.T) {
	rec := validRaw()
	rec.Title = model.UnknownTitle
	rec.Price = "INVALID"

	_, report, err := newTestNormalizer().Normalize([]model.RawRecord{rec})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if report.Dropped[StageTitle] != 1 || report.Dropped[StagePrice] != 0 {
		t.Errorf("Dropped = %v, want the title stage to reject first", report.Dropped)
	}
}

func TestNormalize_MixedBatchKeepsOrder(t *testing.T) {
	a := validRaw()
	a.Title = "A"
	a.Price = "$5.00"
	a.Rating = "⭐ 3"
	a.Colors = "3 Colors"
	a.Size = "S"
	a.Gender = "Male"

	bad := validRaw()
	bad.Rating = "Invalid Rating"

	b := validRaw()
	b.Title = "B"
	b.Price = "$10.00"
	b.Rating = "⭐ 4"
	b.Colors = "5 Colors"
	b.ScrapedAt = "2025-10-18T10:00:00.123456"

	out, _, err := newTestNormalizer().Normalize([]model.RawRecord{a, bad, b, a})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Normalize() returned %d rows, want 2: %+v", len(out), out)
	}
	if out[0].Title != "A" || out[1].Title != "B" {
		t.Errorf("order = %q, %q; want A, B", out[0].Title, out[1].Title)
	}
	if out[0].Price != 80000 || out[0].Rating != 3 || out[0].Colors != 3 {
		t.Errorf("A coerced to %+v", out[0])
	}
	if out[0].Size != "S" || out[0].Gender != "Male" {
		t.Errorf("unlabelled size/gender changed: %+v", out[0])
	}
	if out[1].ScrapedAt != "2025-10-18T10:00:00.123" {
		t.Errorf("ScrapedAt = %q, want millisecond precision", out[1].ScrapedAt)
	}
}

func TestNormalize_DuplicatesRemoved(t *testing.T) {
	out, report, err := newTestNormalizer().Normalize([]model.RawRecord{validRaw(), validRaw(), validRaw()})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(out) != 1 {
		t.Errorf("Normalize() returned %d rows, want 1", len(out))
	}
	if report.Dropped[StageDuplicate] != 2 {
		t.Errorf("Dropped = %v, want 2 duplicates", report.Dropped)
	}
}

func TestNormalize_Empty(t *testing.T) {
	out, report, err := newTestNormalizer().Normalize(nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Errorf("Normalize(nil) = %v, want empty non-nil result", out)
	}
	if report.Input != 0 || report.Output != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := []model.RawRecord{validRaw(), {
		Title: "Denim", Price: "$12.50", Rating: "⭐ 3.9", Colors: "2",
		Size: "L", Gender: "Women", ScrapedAt: "2025-05-10 10:00:01",
	}}
	n := newTestNormalizer()

	first, _, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	second, _, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Normalize() not deterministic:\n%+v\n%+v", first, second)
	}
	if raw[0].Rating != "Rating: ⭐ 4.7" {
		t.Error("Normalize() mutated its input")
	}
}

func TestNormalize_RecoversFromPanic(t *testing.T) {
	n := newTestNormalizer()
	n.pipeline = append(n.pipeline, stage{"boom", func(row) (row, error) {
		panic("unexpected shape")
	}})

	out, _, err := n.Normalize([]model.RawRecord{validRaw()})
	if !errors.Is(err, ErrNormalization) {
		t.Errorf("Normalize() error = %v, want ErrNormalization", err)
	}
	if out != nil {
		t.Errorf("Normalize() = %v, want nil on failure", out)
	}
}

func TestNormalize_PriceRounding(t *testing.T) {
	tests := []struct {
		price string
		want  float64
	}{
		{"$0.01", 160},
		{"$100", 1600000},
		{"USD 7.33", 117280},
	}

	for _, tt := range tests {
		rec := validRaw()
		rec.Price = model.RawField(tt.price)

		out, _, err := New(16000, logger.Discard()).Normalize([]model.RawRecord{rec})
		if err != nil || len(out) != 1 {
			t.Fatalf("Normalize(%q) = %v, %v", tt.price, out, err)
		}
		if out[0].Price != tt.want {
			t.Errorf("Price(%q) = %v, want %v", tt.price, out[0].Price, tt.want)
		}
	}

	rec := validRaw()
	rec.Price = "$1.23456"
	out, _, _ := New(1, logger.Discard()).Normalize([]model.RawRecord{rec})
	if len(out) != 1 || out[0].Price != 1.2 {
		t.Errorf("Price with multiplier 1 = %v, want 1.2", out)
	}
}
