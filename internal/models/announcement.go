// internal/models/announcement.go
package models

// Announcement is the rendered post handed to the community board. Exactly
// one of TargetURL / BodyText is populated: a link post carries no body and
// a self post carries no target.
type Announcement struct {
	Title     string  `json:"title"`
	TargetURL *string `json:"targetUrl,omitempty"`
	BodyText  *string `json:"bodyText,omitempty"`
}

// IsLinkPost reports whether the announcement targets a URL.
func (a Announcement) IsLinkPost() bool {
	return a.TargetURL != nil
}

// PublishResult is the single outcome of a successful relay.
type PublishResult struct {
	CanonicalLink string `json:"canonicalLink"`
}
