// Package document maps the domain repositories onto a bucket/key/JSON
// backend. Backends only move bytes; encoding and keys live here.
package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
)

// Bucket names, one per record kind
const (
	BucketUsers               = "users"
	BucketOrgUnits            = "org_units"
	BucketServices            = "services"
	BucketPricing             = "service_pricing"
	BucketOrders              = "orders"
	BucketDesignOrders        = "design_orders"
	BucketPrintOrders         = "print_orders"
	BucketInventoryItems      = "inventory_items"
	BucketInventoryLogs       = "inventory_logs"
	BucketReorderRequests     = "reorder_requests"
	BucketNotifications       = "notifications"
	BucketPreferences         = "notification_preferences"
	BucketVisitRequests       = "visit_requests"
	BucketVisitSchedules      = "visit_schedules"
	BucketVisitBookings       = "visit_bookings"
	BucketTrainingRequests    = "training_requests"
	BucketTrainingEvaluations = "training_evaluations"
	BucketSettings            = "system_settings"
	BucketPolicies            = "approval_policies"
	BucketAuditLogs           = "audit_logs"
)

// Buckets lists every bucket a backend must be able to hold
var Buckets = []string{
	BucketUsers, BucketOrgUnits, BucketServices, BucketPricing, BucketOrders,
	BucketDesignOrders, BucketPrintOrders, BucketInventoryItems, BucketInventoryLogs,
	BucketReorderRequests, BucketNotifications, BucketPreferences, BucketVisitRequests,
	BucketVisitSchedules, BucketVisitBookings, BucketTrainingRequests,
	BucketTrainingEvaluations, BucketSettings, BucketPolicies, BucketAuditLogs,
}

// BucketTx is the raw key/value view of one backend transaction.
// Get returns repositories.ErrNotFound for a missing key.
type BucketTx interface {
	Get(bucket, key string) ([]byte, error)
	Put(bucket, key string, value []byte) error
	Delete(bucket, key string) error
	// ForEach visits every value of a bucket in key order
	ForEach(bucket string, fn func(key string, value []byte) error) error
}

// Backend provides transactions over buckets
type Backend interface {
	View(ctx context.Context, fn func(BucketTx) error) error
	Update(ctx context.Context, fn func(BucketTx) error) error
	Close() error
}

// Store implements repositories.Store over a Backend
type Store struct {
	backend Backend
}

// NewStore creates a store over backend
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)

func (s *Store) View(ctx context.Context, fn func(repositories.Tx) error) error {
	return s.backend.View(ctx, func(btx BucketTx) error {
		return fn(&tx{btx: btx})
	})
}

func (s *Store) Update(ctx context.Context, fn func(repositories.Tx) error) error {
	return s.backend.Update(ctx, func(btx BucketTx) error {
		return fn(&tx{btx: btx})
	})
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// collection stores one record kind as JSON under its key
type collection[T any] struct {
	btx    BucketTx
	bucket string
	key    func(*T) string
}

var _ repositories.Repository[entities.User] = (*collection[entities.User])(nil)

func (c *collection[T]) Get(id string) (*T, error) {
	raw, err := c.btx.Get(c.bucket, id)
	if err != nil {
		return nil, err
	}
	var record T
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c.bucket, id, err)
	}
	return &record, nil
}

func (c *collection[T]) Put(record *T) error {
	key := c.key(record)
	if key == "" {
		return fmt.Errorf("put %s: record has no key", c.bucket)
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.bucket, key, err)
	}
	return c.btx.Put(c.bucket, key, raw)
}

func (c *collection[T]) Delete(id string) error {
	return c.btx.Delete(c.bucket, id)
}

func (c *collection[T]) List(match func(*T) bool) ([]*T, error) {
	var out []*T
	err := c.btx.ForEach(c.bucket, func(key string, raw []byte) error {
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("decode %s/%s: %w", c.bucket, key, err)
		}
		if match == nil || match(&record) {
			out = append(out, &record)
		}
		return nil
	})
	return out, err
}

type tx struct {
	btx BucketTx
}

func (t *tx) Users() repositories.Repository[entities.User] {
	return &collection[entities.User]{t.btx, BucketUsers, func(u *entities.User) string { return u.ID }}
}

func (t *tx) OrgUnits() repositories.Repository[entities.OrgUnit] {
	return &collection[entities.OrgUnit]{t.btx, BucketOrgUnits, func(u *entities.OrgUnit) string { return u.ID }}
}

func (t *tx) Services() repositories.Repository[entities.Service] {
	return &collection[entities.Service]{t.btx, BucketServices, func(s *entities.Service) string { return s.ID }}
}

func (t *tx) Pricing() repositories.Repository[entities.ServicePricing] {
	return &collection[entities.ServicePricing]{t.btx, BucketPricing, func(p *entities.ServicePricing) string { return p.ID }}
}

func (t *tx) Orders() repositories.Repository[entities.Order] {
	return &collection[entities.Order]{t.btx, BucketOrders, func(o *entities.Order) string { return o.ID }}
}

func (t *tx) DesignOrders() repositories.Repository[entities.DesignOrder] {
	return &collection[entities.DesignOrder]{t.btx, BucketDesignOrders, func(o *entities.DesignOrder) string { return o.ID }}
}

func (t *tx) PrintOrders() repositories.Repository[entities.PrintOrder] {
	return &collection[entities.PrintOrder]{t.btx, BucketPrintOrders, func(o *entities.PrintOrder) string { return o.ID }}
}

func (t *tx) InventoryItems() repositories.Repository[entities.InventoryItem] {
	return &collection[entities.InventoryItem]{t.btx, BucketInventoryItems, func(i *entities.InventoryItem) string { return i.ID }}
}

func (t *tx) InventoryLogs() repositories.Repository[entities.InventoryLog] {
	return &collection[entities.InventoryLog]{t.btx, BucketInventoryLogs, func(l *entities.InventoryLog) string { return l.ID }}
}

func (t *tx) ReorderRequests() repositories.Repository[entities.ReorderRequest] {
	return &collection[entities.ReorderRequest]{t.btx, BucketReorderRequests, func(r *entities.ReorderRequest) string { return r.ID }}
}

func (t *tx) Notifications() repositories.Repository[entities.Notification] {
	return &collection[entities.Notification]{t.btx, BucketNotifications, func(n *entities.Notification) string { return n.ID }}
}

// Preferences are keyed by user id
func (t *tx) Preferences() repositories.Repository[entities.NotificationPreference] {
	return &collection[entities.NotificationPreference]{t.btx, BucketPreferences, func(p *entities.NotificationPreference) string { return p.UserID }}
}

func (t *tx) VisitRequests() repositories.Repository[entities.VisitRequest] {
	return &collection[entities.VisitRequest]{t.btx, BucketVisitRequests, func(v *entities.VisitRequest) string { return v.ID }}
}

func (t *tx) VisitSchedules() repositories.Repository[entities.VisitSchedule] {
	return &collection[entities.VisitSchedule]{t.btx, BucketVisitSchedules, func(s *entities.VisitSchedule) string { return s.ID }}
}

func (t *tx) VisitBookings() repositories.Repository[entities.VisitBooking] {
	return &collection[entities.VisitBooking]{t.btx, BucketVisitBookings, func(b *entities.VisitBooking) string { return b.ID }}
}

func (t *tx) TrainingRequests() repositories.Repository[entities.TrainingRequest] {
	return &collection[entities.TrainingRequest]{t.btx, BucketTrainingRequests, func(r *entities.TrainingRequest) string { return r.ID }}
}

func (t *tx) TrainingEvaluations() repositories.Repository[entities.TrainingEvaluation] {
	return &collection[entities.TrainingEvaluation]{t.btx, BucketTrainingEvaluations, func(e *entities.TrainingEvaluation) string { return e.ID }}
}

// Settings are keyed by setting key
func (t *tx) Settings() repositories.Repository[entities.SystemSetting] {
	return &collection[entities.SystemSetting]{t.btx, BucketSettings, func(s *entities.SystemSetting) string { return s.Key }}
}

func (t *tx) Policies() repositories.Repository[entities.ApprovalPolicy] {
	return &collection[entities.ApprovalPolicy]{t.btx, BucketPolicies, func(p *entities.ApprovalPolicy) string { return p.ID }}
}

func (t *tx) AuditLogs() repositories.Repository[entities.AuditLog] {
	return &collection[entities.AuditLog]{t.btx, BucketAuditLogs, func(a *entities.AuditLog) string { return a.ID }}
}
