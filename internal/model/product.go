package model

// RawField is a scraped value exactly as it appeared on the page, or one of
// the sentinels below when the card did not carry it. It is never a parsed value.
type RawField string

const (
	UnknownTitle      RawField = "Unknown Title"
	PriceNotAvailable RawField = "Price Not Available"
	InvalidRating     RawField = "Invalid Rating"
	NoColors          RawField = "No Colors"
	Unknown           RawField = "Unknown"
)

// ScrapedAtLayout is the wall-clock layout used when a card is captured.
const ScrapedAtLayout = "2006-01-02T15:04:05.000000"

// RawRecord is one listing card as extracted. Every field is always set.
type RawRecord struct {
	Title     RawField `json:"Title"`
	Price     RawField `json:"Price"`
	Rating    RawField `json:"Rating"`
	Colors    RawField `json:"Colors"`
	Size      RawField `json:"Size"`
	Gender    RawField `json:"Gender"`
	ScrapedAt RawField `json:"ScrapedAt"`
}

// NormalizedRecord is a validated, typed product row ready for the sinks.
type NormalizedRecord struct {
	Title     string  `csv:"Title" json:"Title"`
	Price     float64 `csv:"Price" json:"Price"`
	Rating    float64 `csv:"Rating" json:"Rating"`
	Colors    int     `csv:"Colors" json:"Colors"`
	Size      string  `csv:"Size" json:"Size"`
	Gender    string  `csv:"Gender" json:"Gender"`
	ScrapedAt string  `csv:"ScrapedAt" json:"ScrapedAt"`
}

// Columns is the column order shared by every tabular sink.
var Columns = []string{"Title", "Price", "Rating", "Colors", "Size", "Gender", "ScrapedAt"}

// Values returns the record's cells in Columns order.
func (r NormalizedRecord) Values() []any {
	return []any{r.Title, r.Price, r.Rating, r.Colors, r.Size, r.Gender, r.ScrapedAt}
}
