package entities

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Order code prefixes per request kind
const (
	GenericOrderPrefix = "TP"
	DesignOrderPrefix  = "DES"
	PrintOrderPrefix   = "PRT"
)

// ConfirmationWindow is how long a requester has to confirm a finished order
const ConfirmationWindow = 72 * time.Hour

// OrderKind names the three request types
type OrderKind string

const (
	KindGeneral OrderKind = "general"
	KindDesign  OrderKind = "design"
	KindPrint   OrderKind = "print"
)

// OrderCodePrefix returns "PREFIX-yymmdd" for the UTC day of now
func OrderCodePrefix(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s", prefix, now.UTC().Format("060102"))
}

// NextOrderCode continues the daily sequence after last, the highest code issued so far
// for the same day. An empty or foreign last starts the day at 0001.
func NextOrderCode(prefix string, now time.Time, last string) string {
	dayPrefix := OrderCodePrefix(prefix, now)
	seq := 1
	if strings.HasPrefix(last, dayPrefix+"-") {
		if n, err := strconv.Atoi(last[len(dayPrefix)+1:]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s-%04d", dayPrefix, seq)
}

// AttachmentType distinguishes uploaded files from external links
type AttachmentType string

const (
	AttachmentFile AttachmentType = "file"
	AttachmentLink AttachmentType = "link"
)

// Attachment is file metadata or a link attached to a request
type Attachment struct {
	ID         string         `json:"id"`
	Type       AttachmentType `json:"attachment_type"`
	Name       string         `json:"name,omitempty"`
	LinkURL    string         `json:"link_url,omitempty"`
	SizeBytes  int64          `json:"size_bytes,omitempty"`
	UploadedBy string         `json:"uploaded_by,omitempty"`
	UploadedAt time.Time      `json:"uploaded_at"`
}

// NewAttachment validates a file or link attachment
func NewAttachment(kind AttachmentType, name, link string, size int64, uploadedBy string, now time.Time) (*Attachment, error) {
	a := &Attachment{
		ID:         NewID(),
		Type:       kind,
		Name:       strings.TrimSpace(name),
		UploadedBy: uploadedBy,
		UploadedAt: now,
	}
	switch kind {
	case AttachmentFile:
		if a.Name == "" {
			return nil, invalidf("file attachment requires a name")
		}
		if size < 0 {
			return nil, invalidf("attachment size cannot be negative, got %d", size)
		}
		a.SizeBytes = size
	case AttachmentLink:
		u, err := url.Parse(strings.TrimSpace(link))
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, invalidf("link %q is not an absolute URL", link)
		}
		a.LinkURL = u.String()
	default:
		return nil, invalidf("unknown attachment type %q", kind)
	}
	return a, nil
}

// Label is the display name of the attachment
func (a *Attachment) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.LinkURL
}

// StatusChange is one entry of a request's status history
type StatusChange struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	ChangedBy string    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// confirmation tracks the 72h window shared by design and print orders
type confirmation struct {
	ConfirmationDeadline *time.Time `json:"confirmation_deadline,omitempty"`
	ConfirmedAt          *time.Time `json:"confirmed_at,omitempty"`
}

func (c *confirmation) openWindow(now time.Time) {
	if c.ConfirmationDeadline == nil {
		deadline := now.Add(ConfirmationWindow)
		c.ConfirmationDeadline = &deadline
	}
}

func (c *confirmation) expired(now time.Time) bool {
	return c.ConfirmationDeadline != nil && now.After(*c.ConfirmationDeadline)
}

// DeadlineWithin reports whether the deadline falls in (now, now+d]
func (c *confirmation) DeadlineWithin(now time.Time, d time.Duration) bool {
	if c.ConfirmationDeadline == nil {
		return false
	}
	dl := *c.ConfirmationDeadline
	return dl.After(now) && !dl.After(now.Add(d))
}

func timePtr(t time.Time) *time.Time { return &t }
