package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/infrastructure/auth"
)

type LoginResult struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   *entities.User  `json:"user"`
}

// EventRecord is one entry of an entity's domain event history
type EventRecord struct {
	Type      string      `json:"type"`
	StreamID  string      `json:"stream_id"`
	Version   int         `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// OrgNode is one unit of the org tree with its active children
type OrgNode struct {
	*entities.OrgUnit
	FullPath string     `json:"full_path"`
	Children []*OrgNode `json:"children,omitempty"`
}

type AvailableDate struct {
	Date  entities.Date `json:"date"`
	Slots []string      `json:"slots"`
}

type UnreadCount struct {
	Count int `json:"count"`
}

type AdminOverview struct {
	ActiveOrders     int             `json:"active_orders"`
	PendingApprovals int             `json:"pending_approvals"`
	InventoryAlerts  int             `json:"inventory_alerts"`
	SavingsPercent   decimal.Decimal `json:"savings_percent"`
}

type KindTotals struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

type OrdersReport struct {
	General KindTotals `json:"general"`
	Design  KindTotals `json:"design"`
	Print   KindTotals `json:"print"`
	Total   int        `json:"total"`
}

type ProductivityReport struct {
	Date            entities.Date `json:"date"`
	DesignCompleted int           `json:"design_completed"`
	PrintCompleted  int           `json:"print_completed"`
	DesignPending   int           `json:"design_pending"`
	PrintPending    int           `json:"print_pending"`
	TotalCompleted  int           `json:"total_completed"`
	TotalPending    int           `json:"total_pending"`
}

type InventoryReport struct {
	LowStock    []*entities.InventoryItem `json:"low_stock"`
	Movements   map[string]int            `json:"movements"`
	PeriodStart entities.Date             `json:"period_start"`
	PeriodEnd   entities.Date             `json:"period_end"`
}

type ROIRow struct {
	ServiceID    string          `json:"service_id"`
	ServiceName  string          `json:"service_name"`
	Orders       int             `json:"orders"`
	InternalCost decimal.Decimal `json:"internal_cost"`
	ExternalCost decimal.Decimal `json:"external_cost"`
	Savings      decimal.Decimal `json:"savings"`
}

type ROIReport struct {
	Rows          []ROIRow        `json:"rows"`
	TotalOrders   int             `json:"total_orders"`
	TotalInternal decimal.Decimal `json:"total_internal"`
	TotalExternal decimal.Decimal `json:"total_external"`
	TotalSavings  decimal.Decimal `json:"total_savings"`
}

// JobResult is what one periodic check did
type JobResult struct {
	Job       string `json:"job"`
	Processed int    `json:"processed"`
	Notified  int    `json:"notified"`
}

// ImportResult counts the items an import created and updated
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}
