// Package services implements the print center use cases on top of a
// repositories.Store. Every write runs in one store transaction; domain
// events collected during the transaction are published after it commits.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/auth"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

var (
	// ErrForbidden is returned when the caller's role does not allow the operation
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated is returned for bad credentials or tokens
	ErrUnauthenticated = errors.New("unauthenticated")
)

func forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", repositories.ErrConflict, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", repositories.ErrNotFound, fmt.Sprintf(format, args...))
}

// Clock returns the current time
type Clock func() time.Time

// Options configures New
type Options struct {
	Store    repositories.Store
	Events   events.Publisher
	// EventLog backs the admin event history; defaults to Events when it can be read
	EventLog events.Log
	Tokens   *auth.Issuer
	Clock    Clock
	Location *time.Location
	Logger   zerolog.Logger
}

// Services groups every use case
type Services struct {
	Accounts      *Accounts
	OrgUnits      *OrgUnits
	Catalog       *Catalog
	Orders        *Orders
	Designs       *Designs
	Prints        *Prints
	Inventory     *Inventory
	Notifications *Notifications
	Visits        *Visits
	Training      *Training
	System        *System
	Reports       *Reports
	Maintenance   *Maintenance
}

// New wires every service over one store
func New(opts Options) (*Services, error) {
	if opts.Store == nil {
		return nil, errors.New("services: store is required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	if opts.EventLog == nil {
		if l, ok := opts.Events.(events.Log); ok {
			opts.EventLog = l
		}
	}

	c := &core{
		store:  opts.Store,
		events: opts.Events,
		clock:  opts.Clock,
		loc:    opts.Location,
		logger: opts.Logger.With().Str("component", "services").Logger(),
	}
	return &Services{
		Accounts:      &Accounts{core: c, tokens: opts.Tokens},
		OrgUnits:      &OrgUnits{core: c},
		Catalog:       &Catalog{core: c},
		Orders:        &Orders{core: c},
		Designs:       &Designs{core: c},
		Prints:        &Prints{core: c},
		Inventory:     &Inventory{core: c},
		Notifications: &Notifications{core: c},
		Visits:        &Visits{core: c},
		Training:      &Training{core: c},
		System:        &System{core: c, log: opts.EventLog},
		Reports:       &Reports{core: c},
		Maintenance:   &Maintenance{core: c},
	}, nil
}

// SystemActor is the identity used by the CLI, seeding and periodic jobs
func SystemActor() *entities.User {
	return &entities.User{
		ID:          "system",
		Email:       "system@printcenter.local",
		FullName:    "System",
		Role:        entities.RolePrintManager,
		IsActive:    true,
		IsSuperuser: true,
	}
}

type core struct {
	store  repositories.Store
	events events.Publisher
	clock  Clock
	loc    *time.Location
	logger zerolog.Logger
}

// outbox collects the events of one transaction attempt
type outbox struct {
	events []events.Event
}

func (o *outbox) add(e ...events.Event) {
	o.events = append(o.events, e...)
}

func (c *core) now() time.Time {
	return c.clock()
}

// today is the current calendar date in the configured location
func (c *core) today() entities.Date {
	return entities.DateOf(c.clock().In(c.loc))
}

func (c *core) view(ctx context.Context, fn func(repositories.Tx) error) error {
	return c.store.View(ctx, fn)
}

// update runs fn in a write transaction. The outbox is reset on every attempt
// so a retried transaction does not publish twice.
func (c *core) update(ctx context.Context, fn func(repositories.Tx, *outbox) error) error {
	var ob *outbox
	err := c.store.Update(ctx, func(tx repositories.Tx) error {
		ob = &outbox{}
		return fn(tx, ob)
	})
	if err != nil {
		return err
	}
	c.publish(ctx, ob.events)
	return nil
}

func (c *core) publish(ctx context.Context, evts []events.Event) {
	if c.events == nil || len(evts) == 0 {
		return
	}
	if err := c.events.Publish(ctx, evts...); err != nil {
		c.logger.Error().Err(err).Int("events", len(evts)).Msg("failed to publish events")
	}
}

func (c *core) preferences(tx repositories.Tx, userID string) (*entities.NotificationPreference, error) {
	prefs, err := tx.Preferences().Get(userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return entities.DefaultPreferences(userID), nil
	}
	return prefs, err
}

// notify stores a notification for recipientID when allow accepts the
// recipient's preferences. A nil allow always notifies.
func (c *core) notify(tx repositories.Tx, ob *outbox, recipientID string, allow func(*entities.NotificationPreference) bool,
	kind entities.NotificationType, title, message string, data map[string]interface{}) (*entities.Notification, error) {
	if allow != nil {
		prefs, err := c.preferences(tx, recipientID)
		if err != nil {
			return nil, err
		}
		if !allow(prefs) {
			return nil, nil
		}
	}
	n, err := entities.NewNotification(recipientID, kind, title, message, data, c.now())
	if err != nil {
		return nil, err
	}
	if err := tx.Notifications().Put(n); err != nil {
		return nil, err
	}
	ob.add(events.NewNotificationCreatedEvent(n))
	return n, nil
}

func wantsOrderUpdates(p *entities.NotificationPreference) bool { return p.OrderUpdates }

// notifyStaff tells every active staff member about a new request
func (c *core) notifyStaff(tx repositories.Tx, ob *outbox, kind entities.OrderKind, id, code string) error {
	staff, err := tx.Users().List(func(u *entities.User) bool {
		return u.IsActive && u.HasRole(entities.StaffRoles...)
	})
	if err != nil {
		return err
	}
	for _, u := range staff {
		_, err := c.notify(tx, ob, u.ID, wantsOrderUpdates, entities.NotifyOrderStatus,
			"New request received",
			fmt.Sprintf("A new %s request %s was submitted", kind, code),
			orderData(kind, id, code))
		if err != nil {
			return err
		}
	}
	return nil
}

// notifyRequester sends an order_status notification about a status change
func (c *core) notifyRequester(tx repositories.Tx, ob *outbox, requesterID string, kind entities.OrderKind, id, code, status string) error {
	_, err := c.notify(tx, ob, requesterID, wantsOrderUpdates, entities.NotifyOrderStatus,
		"Request status updated",
		fmt.Sprintf("Your %s request %s is now %s", kind, code, strings.ReplaceAll(status, "_", " ")),
		orderData(kind, id, code, "status", status))
	return err
}

func orderData(kind entities.OrderKind, id, code string, extra ...string) map[string]interface{} {
	data := map[string]interface{}{
		"order_id":   id,
		"order_code": code,
		"order_type": string(kind),
	}
	for i := 0; i+1 < len(extra); i += 2 {
		data[extra[i]] = extra[i+1]
	}
	return data
}

func loadUser(tx repositories.Tx, id string) (*entities.User, error) {
	u, err := tx.Users().Get(id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundf("user %s", id)
	}
	return u, err
}

// nextCode continues today's sequence for prefix given every existing code
func nextCode(prefix string, now time.Time, codes []string) string {
	day := entities.OrderCodePrefix(prefix, now) + "-"
	last := ""
	for _, code := range codes {
		if !strings.HasPrefix(code, day) {
			continue
		}
		if len(code) > len(last) || (len(code) == len(last) && code > last) {
			last = code
		}
	}
	return entities.NextOrderCode(prefix, now, last)
}

func buildAttachments(inputs []dto.AttachmentInput, by string, now time.Time) ([]entities.Attachment, error) {
	out := make([]entities.Attachment, 0, len(inputs))
	for _, in := range inputs {
		a, err := entities.NewAttachment(in.Type, in.Name, in.LinkURL, in.SizeBytes, by, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func matchesText(needle string, haystack ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func sortNewestFirst[T any](records []*T, at func(*T) time.Time) {
	sort.SliceStable(records, func(i, j int) bool { return at(records[i]).After(at(records[j])) })
}
