package snapshot

import (
	"encoding/json"
	"strconv"
)

type migration func(doc map[string]json.RawMessage) error

// migrations[v] upgrades a document from version v to v+1.
var migrations = map[int]migration{
	0: migrateV0,
}

// Legacy field spellings of dateTimeFrom seen in unversioned documents.
var legacyDateTimeFromKeys = []string{"datetimeform", "datetimeFrom", "dateTimeForm"}

// migrateV0 upgrades unversioned documents: renames legacy booking fields,
// defaults missing statuses and penalties, assigns account ids by position
// and floors car counts at zero.
func migrateV0(doc map[string]json.RawMessage) error {
	if raw, ok := doc["bookings"]; ok && string(raw) != "null" {
		var bookings []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &bookings); err != nil {
			return err
		}
		for _, b := range bookings {
			if b == nil {
				continue
			}
			for _, key := range legacyDateTimeFromKeys {
				v, ok := b[key]
				if !ok {
					continue
				}
				if _, has := b["dateTimeFrom"]; !has {
					b["dateTimeFrom"] = v
				}
				delete(b, key)
			}
			if s, ok := b["status"]; !ok || string(s) == "null" || string(s) == `""` {
				b["status"] = json.RawMessage(`"reserved"`)
			}
			if p, ok := b["penalty"]; !ok || string(p) == "null" {
				b["penalty"] = json.RawMessage(`0`)
			}
			delete(b, "photos")
		}
		encoded, err := json.Marshal(bookings)
		if err != nil {
			return err
		}
		doc["bookings"] = encoded
	}

	if raw, ok := doc["accounts"]; ok && string(raw) != "null" {
		var accounts []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &accounts); err != nil {
			return err
		}
		for i, a := range accounts {
			if a == nil {
				continue
			}
			if id, ok := a["id"]; !ok || string(id) == "null" {
				a["id"] = json.RawMessage(strconv.Quote(strconv.Itoa(i)))
			}
		}
		encoded, err := json.Marshal(accounts)
		if err != nil {
			return err
		}
		doc["accounts"] = encoded

		if err := linkCurrentAccount(doc, accounts); err != nil {
			return err
		}
	}

	if raw, ok := doc["carQty"]; !ok || string(raw) == "null" {
		doc["carQty"] = json.RawMessage(`{}`)
	} else if err := clampCarQty(doc, raw); err != nil {
		return err
	}

	doc["version"] = json.RawMessage(`1`)
	return nil
}

// linkCurrentAccount gives a legacy currentAccount the id of the account with
// the same name. A session that matches no account is dropped.
func linkCurrentAccount(doc map[string]json.RawMessage, accounts []map[string]json.RawMessage) error {
	raw, ok := doc["currentAccount"]
	if !ok || string(raw) == "null" {
		return nil
	}
	var current map[string]json.RawMessage
	if err := json.Unmarshal(raw, &current); err != nil {
		return err
	}
	if id, ok := current["id"]; ok && string(id) != "null" {
		return nil
	}
	for _, a := range accounts {
		if a != nil && string(a["name"]) == string(current["name"]) {
			current["id"] = a["id"]
			encoded, err := json.Marshal(current)
			if err != nil {
				return err
			}
			doc["currentAccount"] = encoded
			return nil
		}
	}
	doc["currentAccount"] = json.RawMessage(`null`)
	return nil
}

// clampCarQty raises negative counts to zero. Unversioned writers decremented
// without a floor, so oversold cars were stored below zero.
func clampCarQty(doc map[string]json.RawMessage, raw json.RawMessage) error {
	var qty map[string]int
	if err := json.Unmarshal(raw, &qty); err != nil {
		return err
	}
	for key, n := range qty {
		if n < 0 {
			qty[key] = 0
		}
	}
	encoded, err := json.Marshal(qty)
	if err != nil {
		return err
	}
	doc["carQty"] = encoded
	return nil
}
