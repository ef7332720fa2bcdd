// Package snapshot encodes and decodes the persisted application state.
//
// Encoded snapshots carry a schema version. Older documents are migrated
// step by step before being decoded into models.Snapshot and validated;
// anything that does not survive that is reported as
// domain.ErrMalformedSnapshot.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"carrental/internal/domain"
	"carrental/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Encode serializes s with the current schema version.
func Encode(s *models.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode snapshot: nil snapshot")
	}
	out := *s
	out.Version = models.SchemaVersion
	if out.Accounts == nil {
		out.Accounts = []models.Account{}
	}
	if out.Bookings == nil {
		out.Bookings = []models.Booking{}
	}
	if out.CarQty == nil {
		out.CarQty = map[string]int{}
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses data, migrating older schema versions. Empty input yields
// (nil, nil) so callers can tell "nothing saved" from "saved garbage".
func Decode(data []byte) (*models.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed("parse document: %v", err)
	}
	if doc == nil {
		return nil, malformed("document is null")
	}

	version, err := readVersion(doc)
	if err != nil {
		return nil, err
	}
	if version > models.SchemaVersion {
		return nil, malformed("unsupported schema version %d", version)
	}

	for v := version; v < models.SchemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return nil, malformed("no migration from version %d", v)
		}
		if err := step(doc); err != nil {
			return nil, malformed("migrate %d->%d: %v", v, v+1, err)
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, malformed("re-encode migrated document: %v", err)
	}

	s := models.NewSnapshot()
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, malformed("decode: %v", err)
	}
	s.Version = models.SchemaVersion
	if s.Accounts == nil {
		s.Accounts = []models.Account{}
	}
	if s.Bookings == nil {
		s.Bookings = []models.Booking{}
	}
	if s.CarQty == nil {
		s.CarQty = map[string]int{}
	}

	if err := validate.Struct(s); err != nil {
		return nil, malformed("validate: %v", err)
	}
	if err := checkReferences(s); err != nil {
		return nil, err
	}
	return s, nil
}

func readVersion(doc map[string]json.RawMessage) (int, error) {
	raw, ok := doc["version"]
	if !ok || string(raw) == "null" {
		return 0, nil
	}
	var version int
	if err := json.Unmarshal(raw, &version); err != nil {
		return 0, malformed("version: %v", err)
	}
	if version < 0 {
		return 0, malformed("negative version %d", version)
	}
	return version, nil
}

// checkReferences catches what struct tags cannot: duplicate ids.
func checkReferences(s *models.Snapshot) error {
	accountIDs := make(map[string]bool, len(s.Accounts))
	for _, a := range s.Accounts {
		if accountIDs[a.ID] {
			return malformed("duplicate account id %q", a.ID)
		}
		accountIDs[a.ID] = true
	}
	bookingIDs := make(map[int64]bool, len(s.Bookings))
	for _, b := range s.Bookings {
		if bookingIDs[b.ID] {
			return malformed("duplicate booking id %d", b.ID)
		}
		bookingIDs[b.ID] = true
	}
	return nil
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedSnapshot, fmt.Sprintf(format, args...))
}
