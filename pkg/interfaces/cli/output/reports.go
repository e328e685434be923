package output

import (
	"sort"
	"strconv"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
)

// OrdersTables renders the per-kind order totals and their status breakdown
func OrdersTables(r *dto.OrdersReport) []Table {
	totals := Table{
		Title:  "Orders",
		Header: []string{"Kind", "Total"},
		Rows: [][]string{
			{string(entities.KindGeneral), itoa(r.General.Total)},
			{string(entities.KindDesign), itoa(r.Design.Total)},
			{string(entities.KindPrint), itoa(r.Print.Total)},
			{"all", itoa(r.Total)},
		},
	}
	byStatus := Table{Title: "By status", Header: []string{"Kind", "Status", "Count"}}
	for _, k := range []struct {
		kind   entities.OrderKind
		totals dto.KindTotals
	}{
		{entities.KindGeneral, r.General},
		{entities.KindDesign, r.Design},
		{entities.KindPrint, r.Print},
	} {
		for _, status := range sortedKeys(k.totals.ByStatus) {
			byStatus.Rows = append(byStatus.Rows, []string{string(k.kind), status, itoa(k.totals.ByStatus[status])})
		}
	}
	return []Table{totals, byStatus}
}

// ProductivityTables renders one day's completed and pending counts
func ProductivityTables(r *dto.ProductivityReport) []Table {
	return []Table{{
		Title:  "Productivity " + string(r.Date),
		Header: []string{"Kind", "Completed", "Pending"},
		Rows: [][]string{
			{string(entities.KindDesign), itoa(r.DesignCompleted), itoa(r.DesignPending)},
			{string(entities.KindPrint), itoa(r.PrintCompleted), itoa(r.PrintPending)},
			{"all", itoa(r.TotalCompleted), itoa(r.TotalPending)},
		},
	}}
}

// InventoryTables renders low-stock items and stock movements
func InventoryTables(r *dto.InventoryReport) []Table {
	low := Table{
		Title:  "Low stock",
		Header: []string{"SKU", "Name", "Current", "Minimum", "Unit"},
	}
	for _, item := range r.LowStock {
		low.Rows = append(low.Rows, []string{item.SKU, item.Name, itoa(item.CurrentQuantity), itoa(item.MinQuantity), item.Unit})
	}
	moves := Table{
		Title:  "Movements " + string(r.PeriodStart) + " to " + string(r.PeriodEnd),
		Header: []string{"Operation", "Quantity"},
	}
	for _, op := range sortedKeys(r.Movements) {
		moves.Rows = append(moves.Rows, []string{op, itoa(r.Movements[op])})
	}
	return []Table{low, moves}
}

// ROITables renders savings per service with a totals row
func ROITables(r *dto.ROIReport) []Table {
	t := Table{
		Title:  "Return on investment",
		Header: []string{"Service", "Orders", "Internal", "External", "Savings"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []string{
			row.ServiceName, itoa(row.Orders),
			row.InternalCost.StringFixed(2), row.ExternalCost.StringFixed(2), row.Savings.StringFixed(2),
		})
	}
	t.Rows = append(t.Rows, []string{
		"total", itoa(r.TotalOrders),
		r.TotalInternal.StringFixed(2), r.TotalExternal.StringFixed(2), r.TotalSavings.StringFixed(2),
	})
	return []Table{t}
}

// JobTables renders the outcome of periodic check runs
func JobTables(results []*dto.JobResult) []Table {
	t := Table{Title: "Jobs", Header: []string{"Job", "Processed", "Notified"}}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{r.Job, itoa(r.Processed), itoa(r.Notified)})
	}
	return []Table{t}
}

// ItemTables renders inventory items for export listings
func ItemTables(items []*entities.InventoryItem) []Table {
	t := Table{Title: "Inventory", Header: []string{"SKU", "Name", "Category", "Current", "Minimum", "Unit"}}
	for _, item := range items {
		t.Rows = append(t.Rows, []string{
			item.SKU, item.Name, string(item.Category),
			itoa(item.CurrentQuantity), itoa(item.MinQuantity), item.Unit,
		})
	}
	return []Table{t}
}

func itoa(n int) string { return strconv.Itoa(n) }

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
