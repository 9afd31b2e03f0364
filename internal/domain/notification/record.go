package notification

import (
	"errors"
	"html"
	"strings"
	"time"

	"github.com/GriffinCanCode/glassd/internal/shared/id"
	"github.com/GriffinCanCode/glassd/internal/shared/utils"
	"github.com/microcosm-cc/bluemonday"
)

// ErrInvalidEvent is returned by Event.Validate.
var ErrInvalidEvent = errors.New("invalid notification event")

// Event is a "notification posted" message from the phone-side listener.
type Event struct {
	Package     string  `json:"package"`
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
	PostTime    int64   `json:"post_time"`            // ms since epoch, 0 = now
	LargeIcon   string  `json:"large_icon,omitempty"` // base64
	SmallIconID *int    `json:"small_icon_id,omitempty"`
}

// Validate checks the fields the store cannot default.
func (e Event) Validate() error {
	if err := utils.ValidatePackage(e.Package, "package"); err != nil {
		return errors.Join(ErrInvalidEvent, err)
	}
	if err := utils.ValidateText(e.Title, "title"); err != nil {
		return errors.Join(ErrInvalidEvent, err)
	}
	if err := utils.ValidateText(e.Content, "content"); err != nil {
		return errors.Join(ErrInvalidEvent, err)
	}
	if e.PostTime < 0 {
		return errors.Join(ErrInvalidEvent, errors.New("post_time must not be negative"))
	}
	return nil
}

// Record is an admitted notification. Records are never mutated after the
// store builds them.
type Record struct {
	ID              id.NotificationID `json:"id"`
	ApplicationName string            `json:"app_name"`
	Title           *string           `json:"title,omitempty"`
	Content         *string           `json:"content,omitempty"`
	Timestamp       int64             `json:"timestamp"`
	SourcePackage   string            `json:"package"`
	LargeIcon       *Icon             `json:"large_icon,omitempty"`
	SmallIconID     *int              `json:"small_icon_id,omitempty"`
}

// TitleText returns the title or "".
func (r Record) TitleText() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// ContentText returns the content or "".
func (r Record) ContentText() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

// Time returns the post time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Age returns how old the record is at now.
func (r Record) Age(now time.Time) time.Duration {
	return now.Sub(r.Time())
}

var plain = bluemonday.StrictPolicy()

// cleanText strips markup some apps put in their notification text.
func cleanText(s *string) *string {
	if s == nil {
		return nil
	}
	out := strings.TrimSpace(html.UnescapeString(plain.Sanitize(*s)))
	return &out
}
