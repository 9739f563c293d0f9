package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	membershipVariantKey = "RegistryMembershipNonUser"
	entryVariantKey      = "RegistryEntry"
)

// timestampLayouts lists the ISO-8601 shapes seen in registry documents.
// Fractional seconds are accepted by time.Parse without being spelled out.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseRegistry maps a registry-fetch response document onto a Registry.
// Any shape mismatch is reported as a *MalformedResponseError.
func ParseRegistry(data []byte) (Registry, error) {
	root, err := decodeObject("", data)
	if err != nil {
		return Registry{}, err
	}
	items, err := root.array("Response")
	if err != nil {
		return Registry{}, err
	}
	if len(items) == 0 {
		return Registry{}, malformed("Response", "empty response list")
	}
	first, err := decodeObject("Response[0]", items[0])
	if err != nil {
		return Registry{}, err
	}
	reg, err := first.object("Registry")
	if err != nil {
		return Registry{}, err
	}
	return parseRegistryObject(reg)
}

// LoadRegistryFile parses a registry document previously saved to disk.
func LoadRegistryFile(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, fmt.Errorf("read registry file: %w", err)
	}
	return ParseRegistry(data)
}

func parseRegistryObject(o object) (Registry, error) {
	var (
		r   Registry
		err error
	)
	if r.ID, err = o.int64("id"); err != nil {
		return Registry{}, err
	}
	if r.UUID, err = o.string("uuid"); err != nil {
		return Registry{}, err
	}
	if r.Title, err = o.string("title"); err != nil {
		return Registry{}, err
	}
	if r.Currency, err = o.string("currency"); err != nil {
		return Registry{}, err
	}
	if r.Created, err = o.time("created"); err != nil {
		return Registry{}, err
	}
	if r.Updated, err = o.time("updated"); err != nil {
		return Registry{}, err
	}

	memberships, err := o.array("memberships")
	if err != nil {
		return Registry{}, err
	}
	r.Members = make([]Member, 0, len(memberships))
	for i, raw := range memberships {
		m, err := parseMember(indexPath(o.child("memberships"), i), raw)
		if err != nil {
			return Registry{}, err
		}
		r.Members = append(r.Members, m)
	}

	entries, _, err := o.optionalArray("all_registry_entry")
	if err != nil {
		return Registry{}, err
	}
	r.Entries = make([]Entry, 0, len(entries))
	for i, raw := range entries {
		e, err := parseEntry(indexPath(o.child("all_registry_entry"), i), raw)
		if err != nil {
			return Registry{}, err
		}
		r.Entries = append(r.Entries, e)
	}

	pagination, err := o.object("Pagination")
	if err != nil {
		return Registry{}, err
	}
	if r.Pagination, err = parsePagination(pagination); err != nil {
		return Registry{}, err
	}
	return r, nil
}

func parseMember(path string, raw json.RawMessage) (Member, error) {
	o, err := unwrapVariant(path, raw, membershipVariantKey)
	if err != nil {
		return Member{}, err
	}
	var m Member
	if m.UUID, err = o.string("uuid"); err != nil {
		return Member{}, err
	}
	if m.ID, err = o.int64("id"); err != nil {
		return Member{}, err
	}
	if m.Status, err = o.string("status"); err != nil {
		return Member{}, err
	}
	if m.DisplayName, err = aliasName(o); err != nil {
		return Member{}, err
	}
	return m, nil
}

// parseMemberRef reads the uuid and display name of a membership embedded in
// an entry or allocation.
func parseMemberRef(o object, key string) (uuid, name string, err error) {
	raw, err := o.required(key)
	if err != nil {
		return "", "", err
	}
	ref, err := unwrapVariant(o.child(key), raw, membershipVariantKey)
	if err != nil {
		return "", "", err
	}
	if uuid, err = ref.string("uuid"); err != nil {
		return "", "", err
	}
	if name, err = aliasName(ref); err != nil {
		return "", "", err
	}
	return uuid, name, nil
}

func aliasName(o object) (string, error) {
	alias, err := o.object("alias")
	if err != nil {
		return "", err
	}
	return alias.string("display_name")
}

func parseEntry(path string, raw json.RawMessage) (Entry, error) {
	o, err := unwrapVariant(path, raw, entryVariantKey)
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if e.ID, err = o.int64("id"); err != nil {
		return Entry{}, err
	}
	if e.UUID, err = o.string("uuid"); err != nil {
		return Entry{}, err
	}
	if e.Created, err = o.time("created"); err != nil {
		return Entry{}, err
	}
	if e.Date, err = o.time("date"); err != nil {
		return Entry{}, err
	}
	if e.Description, err = o.string("description"); err != nil {
		return Entry{}, err
	}
	if e.Amount, err = o.amount("amount"); err != nil {
		return Entry{}, err
	}
	if e.Status, err = o.string("status"); err != nil {
		return Entry{}, err
	}

	kind, err := o.string("type")
	if err != nil {
		return Entry{}, err
	}
	if e.Type, err = ParseEntryType(kind); err != nil {
		return Entry{}, malformed(o.child("type"), err.Error())
	}
	txKind, err := o.string("type_transaction")
	if err != nil {
		return Entry{}, err
	}
	if e.TransactionType, err = ParseTransactionType(txKind); err != nil {
		return Entry{}, malformed(o.child("type_transaction"), err.Error())
	}

	if e.PayerUUID, e.PayerName, err = parseMemberRef(o, "membership_owned"); err != nil {
		return Entry{}, err
	}

	allocations, err := o.array("allocations")
	if err != nil {
		return Entry{}, err
	}
	e.Allocations = make([]Allocation, 0, len(allocations))
	for i, raw := range allocations {
		a, err := parseAllocation(indexPath(o.child("allocations"), i), raw)
		if err != nil {
			return Entry{}, err
		}
		e.Allocations = append(e.Allocations, a)
	}

	// absent means uncategorized; an explicit null is kept as an empty cell
	if _, present := o.fields["category"]; present {
		category, _, err := o.optionalString("category")
		if err != nil {
			return Entry{}, err
		}
		e.Category = category
	} else {
		e.Category = DefaultCategory
	}
	return e, nil
}

func parseAllocation(path string, raw json.RawMessage) (Allocation, error) {
	o, err := decodeObject(path, raw)
	if err != nil {
		return Allocation{}, err
	}
	var a Allocation
	if a.Amount, err = o.amount("amount"); err != nil {
		return Allocation{}, err
	}
	if a.MemberUUID, a.MemberName, err = parseMemberRef(o, "membership"); err != nil {
		return Allocation{}, err
	}
	kind, err := o.string("type")
	if err != nil {
		return Allocation{}, err
	}
	if a.Type, err = ParseAllocationType(kind); err != nil {
		return Allocation{}, malformed(o.child("type"), err.Error())
	}
	switch a.Type {
	case AllocationRatio:
		ratio, ok, err := o.optionalInt64("share_ratio")
		if err != nil {
			return Allocation{}, err
		}
		if ok {
			a.ShareRatio = &ratio
		}
	case AllocationAmount:
		// share_ratio only describes ratio splits
	}
	return a, nil
}

func parsePagination(o object) (Pagination, error) {
	var p Pagination
	for key, dst := range map[string]**string{
		"future_url": &p.FutureURL,
		"newer_url":  &p.NewerURL,
		"older_url":  &p.OlderURL,
	} {
		v, ok, err := o.optionalString(key)
		if err != nil {
			return Pagination{}, err
		}
		if ok {
			*dst = &v
		}
	}
	return p, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", s)
}

// unwrapVariant normalizes the two shapes a record may take: flat, or nested
// one level under key. Both yield the same object.
func unwrapVariant(path string, raw json.RawMessage, key string) (object, error) {
	o, err := decodeObject(path, raw)
	if err != nil {
		return object{}, err
	}
	inner, ok := o.fields[key]
	if !ok || isNull(inner) {
		return o, nil
	}
	return decodeObject(o.child(key), inner)
}

// object is a decoded JSON object that remembers where it sits in the
// document, so missing or mistyped fields can be reported by path.
type object struct {
	path   string
	fields map[string]json.RawMessage
}

func decodeObject(path string, raw json.RawMessage) (object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return object{}, malformed(displayPath(path), "expected object")
	}
	return object{path: path, fields: fields}, nil
}

func (o object) child(key string) string {
	if o.path == "" {
		return key
	}
	return o.path + "." + key
}

func (o object) required(key string) (json.RawMessage, error) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return nil, malformed(o.child(key), "missing required field")
	}
	return raw, nil
}

func (o object) string(key string) (string, error) {
	raw, err := o.required(key)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", malformed(o.child(key), "expected string")
	}
	return s, nil
}

func (o object) optionalString(key string) (string, bool, error) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, malformed(o.child(key), "expected string")
	}
	return s, true, nil
}

func (o object) int64(key string) (int64, error) {
	raw, err := o.required(key)
	if err != nil {
		return 0, err
	}
	return decodeInt(o.child(key), raw)
}

func (o object) optionalInt64(key string) (int64, bool, error) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return 0, false, nil
	}
	n, err := decodeInt(o.child(key), raw)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (o object) time(key string) (time.Time, error) {
	s, err := o.string(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return time.Time{}, malformed(o.child(key), err.Error())
	}
	return t, nil
}

func (o object) object(key string) (object, error) {
	raw, err := o.required(key)
	if err != nil {
		return object{}, err
	}
	return decodeObject(o.child(key), raw)
}

func (o object) array(key string) ([]json.RawMessage, error) {
	if _, err := o.required(key); err != nil {
		return nil, err
	}
	items, _, err := o.optionalArray(key)
	return items, err
}

func (o object) optionalArray(key string) ([]json.RawMessage, bool, error) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return nil, false, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, malformed(o.child(key), "expected array")
	}
	return items, true, nil
}

func (o object) amount(key string) (Amount, error) {
	a, err := o.object(key)
	if err != nil {
		return Amount{}, err
	}
	currency, err := a.string("currency")
	if err != nil {
		return Amount{}, err
	}
	raw, err := a.required("value")
	if err != nil {
		return Amount{}, err
	}
	value, err := decodeDecimal(raw)
	if err != nil {
		return Amount{}, malformed(a.child("value"), err.Error())
	}
	amt := Amount{Currency: currency, Value: value}
	if err := amt.Validate(); err != nil {
		return Amount{}, malformed(a.child("currency"), err.Error())
	}
	return amt, nil
}

func decodeInt(path string, raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, malformed(path, "expected integer")
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, malformed(path, "expected integer")
	}
	return v, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func displayPath(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

func malformed(path, reason string) *MalformedResponseError {
	return &MalformedResponseError{Path: path, Reason: reason}
}
