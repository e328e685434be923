package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
)

// InventoryReportDays is the movement window of the inventory report
const InventoryReportDays = 30

// Reports builds the management reports
type Reports struct {
	*core
}

// unitScope returns the org units an orders report is limited to, or nil for all
func unitScope(tx repositories.Tx, f dto.OrderReportFilter) (map[string]bool, error) {
	if f.EntityID == "" && f.CollegeID == "" && f.ViceRectorateID == "" {
		return nil, nil
	}
	units, err := tx.OrgUnits().List(nil)
	if err != nil {
		return nil, err
	}
	tree := entities.NewOrgTree(units)
	scope := make(map[string]bool)
	switch {
	case f.EntityID != "":
		scope[f.EntityID] = true
	case f.CollegeID != "":
		for _, u := range tree.Descendants(f.CollegeID) {
			scope[u.ID] = true
		}
	default:
		scope[f.ViceRectorateID] = true
		for _, u := range tree.Descendants(f.ViceRectorateID) {
			scope[u.ID] = true
		}
	}
	return scope, nil
}

func tally(t *dto.KindTotals, status string) {
	if t.ByStatus == nil {
		t.ByStatus = make(map[string]int)
	}
	t.Total++
	t.ByStatus[status]++
}

// Orders counts requests by kind and status
func (s *Reports) Orders(ctx context.Context, actor *entities.User, f dto.OrderReportFilter) (*dto.OrdersReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	from, to, err := dayRange(f.Start, f.End, s.loc)
	if err != nil {
		return nil, err
	}
	out := &dto.OrdersReport{
		General: dto.KindTotals{ByStatus: map[string]int{}},
		Design:  dto.KindTotals{ByStatus: map[string]int{}},
		Print:   dto.KindTotals{ByStatus: map[string]int{}},
	}
	wants := func(kind entities.OrderKind) bool { return f.Type == "" || f.Type == kind }

	err = s.view(ctx, func(tx repositories.Tx) error {
		scope, err := unitScope(tx, f)
		if err != nil {
			return err
		}
		in := func(unitID string, created time.Time) bool {
			return (scope == nil || scope[unitID]) && within(created, from, to)
		}
		if wants(entities.KindGeneral) {
			rows, err := tx.Orders().List(func(o *entities.Order) bool { return in(o.OrgUnitID, o.CreatedAt) })
			if err != nil {
				return err
			}
			for _, o := range rows {
				tally(&out.General, string(o.Status))
			}
		}
		if wants(entities.KindDesign) {
			rows, err := tx.DesignOrders().List(func(d *entities.DesignOrder) bool { return in(d.OrgUnitID, d.CreatedAt) })
			if err != nil {
				return err
			}
			for _, d := range rows {
				tally(&out.Design, string(d.Status))
			}
		}
		if wants(entities.KindPrint) {
			rows, err := tx.PrintOrders().List(func(p *entities.PrintOrder) bool { return in(p.OrgUnitID, p.CreatedAt) })
			if err != nil {
				return err
			}
			for _, p := range rows {
				tally(&out.Print, string(p.Status))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Total = out.General.Total + out.Design.Total + out.Print.Total
	return out, nil
}

// Productivity reports one day's completed and still pending work. An empty
// date means today.
func (s *Reports) Productivity(ctx context.Context, actor *entities.User, date string) (*dto.ProductivityReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	day := s.today()
	if strings.TrimSpace(date) != "" {
		d, err := entities.ParseDate(date)
		if err != nil {
			return nil, err
		}
		day = d
	}
	sameDay := func(t *time.Time) bool { return t != nil && entities.DateOf(t.In(s.loc)) == day }

	out := &dto.ProductivityReport{Date: day}
	err := s.view(ctx, func(tx repositories.Tx) error {
		designs, err := tx.DesignOrders().List(nil)
		if err != nil {
			return err
		}
		for _, d := range designs {
			if d.Status == entities.DesignCompleted && sameDay(d.CompletedAt) {
				out.DesignCompleted++
			}
			created := d.CreatedAt
			if sameDay(&created) && d.Status != entities.DesignCompleted {
				out.DesignPending++
			}
		}
		prints, err := tx.PrintOrders().List(nil)
		if err != nil {
			return err
		}
		for _, p := range prints {
			done := p.Status == entities.PrintArchived || p.Status == entities.PrintDeliveryScheduled
			if done && sameDay(p.CompletedAt) {
				out.PrintCompleted++
			}
			created := p.CreatedAt
			if sameDay(&created) && !done {
				out.PrintPending++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.TotalCompleted = out.DesignCompleted + out.PrintCompleted
	out.TotalPending = out.DesignPending + out.PrintPending
	return out, nil
}

// Inventory lists low-stock items and sums movements per operation over the last 30 days
func (s *Reports) Inventory(ctx context.Context, actor *entities.User) (*dto.InventoryReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.now()
	since := now.AddDate(0, 0, -InventoryReportDays)
	out := &dto.InventoryReport{
		Movements:   map[string]int{},
		PeriodStart: entities.DateOf(since.In(s.loc)),
		PeriodEnd:   entities.DateOf(now.In(s.loc)),
	}
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		out.LowStock, err = tx.InventoryItems().List(func(it *entities.InventoryItem) bool { return it.IsLowStock() })
		if err != nil {
			return err
		}
		logs, err := tx.InventoryLogs().List(func(l *entities.InventoryLog) bool { return !l.CreatedAt.Before(since) })
		if err != nil {
			return err
		}
		for _, l := range logs {
			out.Movements[string(l.Operation)] += l.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out.LowStock, func(i, j int) bool { return out.LowStock[i].Name < out.LowStock[j].Name })
	return out, nil
}

// ROI prices each service's generic orders at its current pricing row
func (s *Reports) ROI(ctx context.Context, actor *entities.User) (*dto.ROIReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out := &dto.ROIReport{
		Rows:          []dto.ROIRow{},
		TotalInternal: decimal.Zero,
		TotalExternal: decimal.Zero,
		TotalSavings:  decimal.Zero,
	}
	err := s.view(ctx, func(tx repositories.Tx) error {
		services, err := tx.Services().List(nil)
		if err != nil {
			return err
		}
		pricing, err := tx.Pricing().List(nil)
		if err != nil {
			return err
		}
		orders, err := tx.Orders().List(nil)
		if err != nil {
			return err
		}
		counts := make(map[string]int)
		for _, o := range orders {
			counts[o.ServiceID]++
		}
		current := currentPricing(pricing, s.now())

		sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
		for _, svc := range services {
			p, ok := current[svc.ID]
			n := counts[svc.ID]
			if !ok || n == 0 {
				continue
			}
			qty := decimal.NewFromInt(int64(n))
			row := dto.ROIRow{
				ServiceID:    svc.ID,
				ServiceName:  svc.Name,
				Orders:       n,
				InternalCost: p.InternalCost.Mul(qty),
				ExternalCost: p.ExternalCost.Mul(qty),
			}
			row.Savings = row.ExternalCost.Sub(row.InternalCost)
			out.Rows = append(out.Rows, row)
			out.TotalOrders += n
			out.TotalInternal = out.TotalInternal.Add(row.InternalCost)
			out.TotalExternal = out.TotalExternal.Add(row.ExternalCost)
			out.TotalSavings = out.TotalSavings.Add(row.Savings)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
