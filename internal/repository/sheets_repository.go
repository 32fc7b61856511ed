package repository

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"fashionetl/internal/config"
	"fashionetl/internal/model"
)

// ValuesService is the slice of the Sheets values API the sink needs.
type ValuesService interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
}

// SheetsRepository clears a spreadsheet range and writes header plus rows into it.
type SheetsRepository struct {
	Values        ValuesService
	SpreadsheetID string
	Range         string
}

// NewSheetsRepository authenticates with a service-account credentials file.
func NewSheetsRepository(ctx context.Context, cfg config.SheetsConfig) (*SheetsRepository, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return &SheetsRepository{
		Values:        &googleValues{svc: svc.Spreadsheets.Values},
		SpreadsheetID: cfg.SpreadsheetID,
		Range:         cfg.Range,
	}, nil
}

func (r *SheetsRepository) Name() string { return "sheets" }

func (r *SheetsRepository) Save(ctx context.Context, records []model.NormalizedRecord) error {
	if err := r.Values.Clear(ctx, r.SpreadsheetID, r.Range); err != nil {
		return fmt.Errorf("failed to clear %s: %w", r.Range, err)
	}

	header := make([]any, len(model.Columns))
	for i, c := range model.Columns {
		header[i] = c
	}
	values := make([][]any, 0, len(records)+1)
	values = append(values, header)
	for _, rec := range records {
		values = append(values, rec.Values())
	}

	if err := r.Values.Update(ctx, r.SpreadsheetID, r.Range, values); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.Range, err)
	}
	return nil
}

type googleValues struct {
	svc *sheets.SpreadsheetsValuesService
}

func (g *googleValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := g.svc.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleValues) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := g.svc.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
