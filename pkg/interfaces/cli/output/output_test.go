package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
)

func roiReport() *dto.ROIReport {
	return &dto.ROIReport{
		Rows: []dto.ROIRow{{
			ServiceName:  "Business Cards",
			Orders:       3,
			InternalCost: decimal.NewFromInt(120),
			ExternalCost: decimal.NewFromInt(300),
			Savings:      decimal.NewFromInt(180),
		}},
		TotalOrders:   3,
		TotalInternal: decimal.NewFromInt(120),
		TotalExternal: decimal.NewFromInt(300),
		TotalSavings:  decimal.NewFromInt(180),
	}
}

func TestGenerate_Formats(t *testing.T) {
	report := roiReport()
	tables := ROITables(report)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Generate(&buf, FormatText, report, tables...))
		out := buf.String()
		assert.Contains(t, out, "Return on investment\n")
		assert.Contains(t, out, "Business Cards")
		assert.Contains(t, out, "180.00")
		assert.Contains(t, out, "total")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Generate(&buf, FormatJSON, report, tables...))
		var decoded dto.ROIReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 3, decoded.TotalOrders)
		assert.True(t, decoded.TotalSavings.Equal(decimal.NewFromInt(180)))
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Generate(&buf, FormatCSV, report, tables...))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"Service", "Orders", "Internal", "External", "Savings"}, records[0])
		assert.Equal(t, []string{"Business Cards", "3", "120.00", "300.00", "180.00"}, records[1])
	})

	t.Run("unknown", func(t *testing.T) {
		err := Generate(&bytes.Buffer{}, "xml", report)
		assert.ErrorContains(t, err, "unsupported output format")
	})
}

func TestOrdersTables_SortsStatuses(t *testing.T) {
	tables := OrdersTables(&dto.OrdersReport{
		General: dto.KindTotals{Total: 3, ByStatus: map[string]int{"pending": 2, "approved": 1}},
		Print:   dto.KindTotals{Total: 1, ByStatus: map[string]int{"archived": 1}},
		Total:   4,
	})
	require.Len(t, tables, 2)
	assert.Equal(t, []string{"all", "4"}, tables[0].Rows[3])
	assert.Equal(t, [][]string{
		{"general", "approved", "1"},
		{"general", "pending", "2"},
		{"print", "archived", "1"},
	}, tables[1].Rows)
}

func TestGenerate_EmptyTableText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, FormatText, nil, JobTables(nil)...))
	assert.Equal(t, "Jobs\n====\n(none)\n", buf.String())
}

func TestRenderReceipt(t *testing.T) {
	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	deadline := now.Add(72 * time.Hour)

	tests := []struct {
		name    string
		receipt *Receipt
		want    []string
	}{
		{
			name: "service order",
			receipt: OrderReceipt(&entities.Order{
				Code:        "TP-250312-0001",
				Status:      entities.OrderPending,
				Priority:    entities.PriorityMedium,
				Department:  "Computer Science",
				SubmittedAt: now,
				FieldValues: []entities.FieldValue{
					{FieldID: "f1", Value: "Dr. <Layla>"},
					{FieldID: "f2", Value: true},
				},
				History: []entities.StatusChange{{Status: "pending", Note: "order created", ChangedAt: now}},
			}, &entities.Service{
				Name:   "Business Cards",
				Fields: []entities.ServiceField{{ID: "f1", Label: "Name on card"}, {ID: "f2", Label: "Rounded corners"}},
			}, "Layla Hassan", now),
			want: []string{
				"General order TP-250312-0001", "Business Cards", "Layla Hassan",
				"Name on card", "Dr. &lt;Layla&gt;", "Rounded corners", "Yes", "order created",
			},
		},
		{
			name: "design order",
			receipt: DesignReceipt(&entities.DesignOrder{
				Code:        "DES-250312-0001",
				Title:       "Open day poster",
				DesignType:  entities.DesignPoster,
				Size:        entities.SizeA4,
				Status:      entities.DesignPendingConfirm,
				Priority:    entities.UrgencyUrgent,
				Description: "two colours",
				SubmittedAt: now,
			}, "Layla Hassan", now),
			want: []string{"Design order DES-250312-0001", "Open day poster", "Poster", "A4", "two colours"},
		},
		{
			name: "print order",
			receipt: PrintReceipt(&entities.PrintOrder{
				Code:           "PRT-250312-0001",
				PrintType:      entities.PrintBusinessCards,
				ProductionDept: entities.DeptDigital,
				Size:           entities.SizeCustom,
				CustomSize:     "9x5cm",
				PaperType:      entities.PaperCoated,
				PaperWeight:    300,
				Quantity:       500,
				Sides:          2,
				Pages:          1,
				ActualQuantity: 510,
				DeliveryMethod: entities.DeliverySelfPickup,
				Status:         entities.PrintPendingConfirm,
				SubmittedAt:    now,
				Attachments:    []entities.Attachment{{Type: entities.AttachmentFile, Name: "card.pdf"}},
			}, "Layla Hassan", now),
			want: []string{"Print order PRT-250312-0001", "Business cards", "9x5cm", "Coated 300g", "Printed", "510", "card.pdf", "Self pickup"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderReceipt(&buf, tt.receipt))
			out := buf.String()
			assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}

	t.Run("deadline line", func(t *testing.T) {
		r := DesignReceipt(&entities.DesignOrder{Code: "DES-1"}, "x", now)
		assert.NotContains(t, labels(r), "Confirm by")
		o := &entities.DesignOrder{Code: "DES-2"}
		o.ConfirmationDeadline = &deadline
		r = DesignReceipt(o, "x", now)
		assert.Contains(t, labels(r), "Confirm by")
	})
}

func labels(r *Receipt) []string {
	out := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, l.Label)
	}
	return out
}

func TestReceiptFilename(t *testing.T) {
	assert.Equal(t, "receipt_PRT-250312-0001.html", ReceiptFilename("PRT-250312-0001"))
}
