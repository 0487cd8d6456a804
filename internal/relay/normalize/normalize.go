// Package normalize turns the provider's raw entry payload into a
// canonical visitor event.
package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"visitor-relay/internal/common/errors"
	"visitor-relay/internal/common/logger"
	"visitor-relay/internal/models"
)

// timeLayout is the provider's timestamp format, always UTC.
const timeLayout = "2006-01-02 15:04:05"

// entrySchema validates the payload shape before field extraction so
// malformed-event errors carry field-level detail.
const entrySchema = `{
	"type": "object",
	"properties": {
		"id": {"type": ["string", "integer"]},
		"your_full_name": {"type": "string", "minLength": 1},
		"signed_in_time_utc": {"type": "string"},
		"photo_url": {"type": ["string", "null"]}
	},
	"required": ["id", "your_full_name", "signed_in_time_utc"]
}`

type entryPayload struct {
	ID              json.Number `json:"id"`
	FullName        string      `json:"your_full_name"`
	SignedInTimeUTC string      `json:"signed_in_time_utc"`
	PhotoURL        string      `json:"photo_url"`
}

type Service struct {
	schema *gojsonschema.Schema
	logger logger.Logger
}

func NewService(log logger.Logger) (*Service, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(entrySchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile entry schema: %w", err)
	}
	return &Service{schema: schema, logger: log}, nil
}

// Normalize parses the JSON entry payload and converts the sign-in time
// into the location's local zone. The canonical instant stays UTC.
func (s *Service) Normalize(entryJSON string, loc models.LocationInfo) (*models.VisitorEvent, error) {
	result, err := s.schema.Validate(gojsonschema.NewStringLoader(entryJSON))
	if err != nil {
		return nil, errors.NewEntryMalformedError(fmt.Sprintf("invalid JSON: %v", err))
	}
	if !result.Valid() {
		return nil, errors.NewEntryMalformedError(schemaErrors(result))
	}

	var entry entryPayload
	if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
		return nil, errors.NewEntryMalformedError(err.Error())
	}

	signedInUTC, err := time.ParseInLocation(timeLayout, entry.SignedInTimeUTC, time.UTC)
	if err != nil {
		return nil, errors.NewEntryMalformedError(
			fmt.Sprintf("unparseable signed_in_time_utc %q", entry.SignedInTimeUTC))
	}

	zone, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		// The registry resolves every timezone at startup, so this only
		// fires if the zone database changed underneath the process.
		return nil, errors.NewEntryMalformedError(
			fmt.Sprintf("timezone %q not loadable", loc.Timezone))
	}

	event := &models.VisitorEvent{
		ProviderID:     entry.ID.String(),
		VisitorName:    entry.FullName,
		SignedInAtUTC:  signedInUTC,
		SignedInLocal:  signedInUTC.In(zone),
		LocationCode:   loc.Code,
		PhotoSourceURL: entry.PhotoURL,
	}

	s.logger.Debug("normalized visitor event", map[string]interface{}{
		"providerId": event.ProviderID,
		"location":   event.LocationCode,
	})

	return event, nil
}

func schemaErrors(result *gojsonschema.Result) string {
	detail := ""
	for i, desc := range result.Errors() {
		if i > 0 {
			detail += "; "
		}
		detail += desc.String()
	}
	return detail
}
