package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/printcenter/pkg/domain/entities"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would break a uniqueness rule
	ErrConflict = errors.New("conflict")
)

// Repository provides keyed access to one kind of record
type Repository[T any] interface {
	Get(id string) (*T, error)
	Put(record *T) error
	Delete(id string) error
	// List returns the records accepted by match, or all when match is nil
	List(match func(*T) bool) ([]*T, error)
}

// Tx exposes every repository inside one transaction
type Tx interface {
	Users() Repository[entities.User]
	OrgUnits() Repository[entities.OrgUnit]
	Services() Repository[entities.Service]
	Pricing() Repository[entities.ServicePricing]
	Orders() Repository[entities.Order]
	DesignOrders() Repository[entities.DesignOrder]
	PrintOrders() Repository[entities.PrintOrder]
	InventoryItems() Repository[entities.InventoryItem]
	InventoryLogs() Repository[entities.InventoryLog]
	ReorderRequests() Repository[entities.ReorderRequest]
	Notifications() Repository[entities.Notification]
	Preferences() Repository[entities.NotificationPreference]
	VisitRequests() Repository[entities.VisitRequest]
	VisitSchedules() Repository[entities.VisitSchedule]
	VisitBookings() Repository[entities.VisitBooking]
	TrainingRequests() Repository[entities.TrainingRequest]
	TrainingEvaluations() Repository[entities.TrainingEvaluation]
	Settings() Repository[entities.SystemSetting]
	Policies() Repository[entities.ApprovalPolicy]
	AuditLogs() Repository[entities.AuditLog]
}

// Store runs functions inside read-only or read-write transactions.
// An Update whose function returns an error leaves no writes behind.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// First returns the first record accepted by match, or ErrNotFound
func First[T any](repo Repository[T], match func(*T) bool) (*T, error) {
	records, err := repo.List(match)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// Exists reports whether any record is accepted by match
func Exists[T any](repo Repository[T], match func(*T) bool) (bool, error) {
	_, err := First(repo, match)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
