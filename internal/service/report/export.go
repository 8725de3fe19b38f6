package service

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/logger"
)

const (
	sheetParts        = "Parts Inventory"
	sheetProducts     = "Finished Products"
	sheetProduction   = "Production"
	sheetSales        = "Sales"
	sheetTransactions = "Transactions"

	maxColumnWidth = 50
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

type sheet struct {
	name    string
	headers []string
	rows    [][]any
}

// Export renders the whole inventory as an xlsx workbook.
func (svc *service) Export(ctx context.Context) (*model.Workbook, error) {
	const op string = "report.service.Export"

	sheets, err := svc.collectSheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	content, err := renderWorkbook(sheets)
	if err != nil {
		logger.Error(ctx, "render workbook", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := svc.now()
	return &model.Workbook{
		Filename:    fmt.Sprintf("stock_report_%s.xlsx", now.Format("20060102_150405")),
		Content:     content,
		GeneratedAt: now,
	}, nil
}

func (svc *service) collectSheets(ctx context.Context) ([]sheet, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	parts, err := svc.repo.ListParts(ctx)
	if err != nil {
		return nil, err
	}
	products, err := svc.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	production, err := svc.repo.ListRecords(ctx, model.RecordFilter{Kind: model.KindProduction})
	if err != nil {
		return nil, err
	}
	sales, err := svc.repo.ListRecords(ctx, model.RecordFilter{Kind: model.KindSale})
	if err != nil {
		return nil, err
	}
	feed, err := svc.repo.ListTransactions(ctx, model.MaxTransactionsLimit)
	if err != nil {
		return nil, err
	}

	partsSheet := sheet{
		name: sheetParts,
		headers: []string{"Part Name", "Category", "Quantity", "Supplier", "Purchase Price",
			"Low Stock Threshold", "Status", "Last Purchase Date"},
	}
	for _, p := range parts {
		status := "OK"
		if p.IsLowStock() {
			status = "LOW STOCK"
		}
		partsSheet.rows = append(partsSheet.rows, []any{
			p.Name,
			p.Category,
			p.Quantity.InexactFloat64(),
			p.SupplierName,
			p.PurchasePrice.InexactFloat64(),
			p.LowStockThreshold.InexactFloat64(),
			status,
			p.LastPurchaseDate.Format(dateLayout),
		})
	}

	productsSheet := sheet{
		name:    sheetProducts,
		headers: []string{"Product Name", "Category", "Quantity", "Has Recipe", "Created Date"},
	}
	for _, p := range products {
		hasRecipe := "No"
		if p.HasRecipe {
			hasRecipe = "Yes"
		}
		productsSheet.rows = append(productsSheet.rows, []any{
			p.Name,
			p.Category,
			p.Quantity.InexactFloat64(),
			hasRecipe,
			p.CreatedAt.Format(dateLayout),
		})
	}

	productionSheet := sheet{
		name:    sheetProduction,
		headers: []string{"Date", "Item", "Quantity", "Created At"},
	}
	for _, r := range production {
		productionSheet.rows = append(productionSheet.rows, []any{
			r.Date.Format(dateLayout),
			r.ItemName,
			r.Quantity.InexactFloat64(),
			r.CreatedAt.Format(dateTimeLayout),
		})
	}

	salesSheet := sheet{
		name:    sheetSales,
		headers: []string{"Date", "Item", "Quantity", "Party", "Created At"},
	}
	for _, r := range sales {
		salesSheet.rows = append(salesSheet.rows, []any{
			r.Date.Format(dateLayout),
			r.ItemName,
			r.Quantity.InexactFloat64(),
			r.PartyName,
			r.CreatedAt.Format(dateTimeLayout),
		})
	}

	feedSheet := sheet{
		name:    sheetTransactions,
		headers: []string{"Date", "Type", "Details", "Cost"},
	}
	for _, t := range feed {
		details, err := json.Marshal(t.Details)
		if err != nil {
			return nil, err
		}
		feedSheet.rows = append(feedSheet.rows, []any{
			t.Date.Format(dateTimeLayout),
			string(t.Type),
			string(details),
			t.Cost.InexactFloat64(),
		})
	}

	return []sheet{partsSheet, productsSheet, productionSheet, salesSheet, feedSheet}, nil
}

func renderWorkbook(sheets []sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, err
		}

		if err := writeSheet(f, sh, headerStyle); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sh.name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sh sheet, headerStyle int) error {
	widths := make([]int, len(sh.headers))

	header := make([]any, len(sh.headers))
	for i, h := range sh.headers {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(sh.headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sh.name, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range sh.rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
			return err
		}
		for c, v := range row {
			if n := utf8.RuneCountInString(fmt.Sprint(v)); c < len(widths) && n > widths[c] {
				widths[c] = n
			}
		}
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sh.name, col, col, float64(min(w+2, maxColumnWidth))); err != nil {
			return err
		}
	}
	return nil
}
