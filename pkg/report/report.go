// Package report exports the history ledger as a spreadsheet.
package report

import (
	"fmt"
	"time"

	"github.com/geniass/airpods-dealz/pkg/deals"
	"github.com/geniass/airpods-dealz/pkg/product"
	"github.com/xuri/excelize/v2"
)

const (
	historySheet  = "History"
	averagesSheet = "Averages"
)

// WriteXLSX writes every ledger entry with its tier to the History sheet and the rolling
// averages as of now to the Averages sheet.
func WriteXLSX(path string, ledger []product.Product, family product.Family, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(historySheet, "A1", &[]interface{}{"Name", "Link", "Price", "Date", "Tier"}); err != nil {
		return err
	}
	for i, p := range ledger {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.Name, p.Link, p.Price, p.Date.String(), family.Classify(p.Name).String()}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return fmt.Errorf("write ledger row %d: %w", i, err)
		}
	}

	if _, err := f.NewSheet(averagesSheet); err != nil {
		return err
	}
	today := product.Today(now)
	if err := f.SetSheetRow(averagesSheet, "A1", &[]interface{}{"Tier", "Average", "Entries", "Since"}); err != nil {
		return err
	}
	avg := deals.RollingAverages(family, ledger, today)
	for i, t := range product.Tiers {
		row := []interface{}{t.String(), avg.Of(t), avg.Count[t], product.MonthBefore(today).String()}
		if err := f.SetSheetRow(averagesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
