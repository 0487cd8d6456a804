// Package compose renders the human-readable announcement from a
// normalized visitor event.
package compose

import (
	"strings"

	"visitor-relay/internal/common/config"
	"visitor-relay/internal/models"
)

// Composer substitutes {date}, {location} and {visitor_name} into the
// configured templates; the chat template additionally takes {link}.
type Composer struct {
	cfg config.TemplateConfig
}

func New(cfg config.TemplateConfig) *Composer {
	return &Composer{cfg: cfg}
}

// Compose builds the announcement. A non-empty imageURL produces a link
// post; an empty one produces a self post with an empty body. Exactly one
// of TargetURL/BodyText is populated.
func (c *Composer) Compose(event *models.VisitorEvent, loc models.LocationInfo, imageURL string) models.Announcement {
	ann := models.Announcement{
		Title: c.substitute(c.cfg.Title, event, loc, ""),
	}

	if imageURL != "" {
		ann.TargetURL = &imageURL
	} else {
		empty := ""
		ann.BodyText = &empty
	}

	return ann
}

// ChatMessage renders the chat notification for a published announcement.
func (c *Composer) ChatMessage(event *models.VisitorEvent, loc models.LocationInfo, link string) string {
	return c.substitute(c.cfg.Chat, event, loc, link)
}

func (c *Composer) substitute(template string, event *models.VisitorEvent, loc models.LocationInfo, link string) string {
	r := strings.NewReplacer(
		"{date}", event.SignedInLocal.Format(c.cfg.DateLayout),
		"{location}", loc.DisplayName,
		"{visitor_name}", event.VisitorName,
		"{link}", link,
	)
	return r.Replace(template)
}
