// internal/models/visitor.go
package models

import "time"

// LocationInfo describes one office location the relay serves. Built once
// from configuration at startup and read-only afterwards.
type LocationInfo struct {
	Code          string `json:"code"`
	DisplayName   string `json:"displayName"`
	Timezone      string `json:"timezone"`
	ArchivePrefix string `json:"archivePrefix"`
}

// InboundNotification is the raw webhook body as posted by the check-in
// provider. It lives for a single request and is never persisted.
type InboundNotification struct {
	EntryPayload string `json:"entry"`
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Token        string `json:"token"`
	Signature    string `json:"signature"`
}

// VisitorEvent is the canonical record extracted from a check-in payload.
type VisitorEvent struct {
	ProviderID     string    `json:"providerId"`
	VisitorName    string    `json:"visitorName"`
	SignedInAtUTC  time.Time `json:"signedInAtUtc"`
	SignedInLocal  time.Time `json:"signedInLocal"`
	LocationCode   string    `json:"locationCode"`
	PhotoSourceURL string    `json:"photoSourceUrl,omitempty"`
}

// ArchivalKey returns the deterministic object-storage key for the
// visitor's photo.
func (e VisitorEvent) ArchivalKey(prefix string) string {
	return prefix + "/" + e.ProviderID + ".jpg"
}
