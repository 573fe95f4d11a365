package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// valuesAPI is the subset of the Sheets values resource the store uses
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, row []string) error
	Update(ctx context.Context, rng string, row []string) error
}

type serviceValues struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

func newServiceValues(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*serviceValues, error) {
	opts = append(opts, option.WithScopes(sheetsapi.SpreadsheetsScope))
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets.NewService failed: %w", err)
	}
	return &serviceValues{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (v *serviceValues) Get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(v.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		out = append(out, cells)
	}
	return out, nil
}

func (v *serviceValues) Append(ctx context.Context, rng string, row []string) error {
	_, err := v.svc.Spreadsheets.Values.Append(v.spreadsheetID, rng, valueRange(row)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (v *serviceValues) Update(ctx context.Context, rng string, row []string) error {
	_, err := v.svc.Spreadsheets.Values.Update(v.spreadsheetID, rng, valueRange(row)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func valueRange(row []string) *sheetsapi.ValueRange {
	cells := make([]interface{}, len(row))
	for i, cell := range row {
		cells[i] = cell
	}
	return &sheetsapi.ValueRange{Values: [][]interface{}{cells}}
}
