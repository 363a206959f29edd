package contact

import (
	"slices"
	"strconv"
	"time"
)

// Field paths understood by find, filter and search.
const (
	FieldID              = "id"
	FieldPublished       = "published"
	FieldUpdated         = "updated"
	FieldDisplayName     = "displayName"
	FieldFamilyName      = "name.familyName"
	FieldGivenName       = "name.givenName"
	FieldMiddleName      = "name.middleName"
	FieldHonorificPrefix = "name.honorificPrefix"
	FieldHonorificSuffix = "name.honorificSuffix"
	FieldNickname        = "nickname"
	FieldNote            = "note"
	FieldBirthday        = "birthday"
	FieldEmails          = "emails"
	FieldPhoneNumbers    = "phoneNumbers"
	FieldAddresses       = "addresses"
	FieldIMs             = "ims"
	FieldURLs            = "urls"
	FieldOrganizations   = "organizations"
	FieldPhotos          = "photos"
	FieldCategories      = "categories"
	FieldAccounts        = "accounts"
	FieldFrecency        = "frecency"
	FieldSource          = "source"
	FieldSources         = "sources"
)

// Fields lists every canonical field path.
var Fields = []string{
	FieldID, FieldPublished, FieldUpdated,
	FieldDisplayName, FieldFamilyName, FieldGivenName, FieldMiddleName,
	FieldHonorificPrefix, FieldHonorificSuffix,
	FieldNickname, FieldNote, FieldBirthday,
	FieldEmails, FieldPhoneNumbers, FieldAddresses, FieldIMs, FieldURLs,
	FieldOrganizations, FieldPhotos, FieldCategories, FieldAccounts,
	FieldFrecency, FieldSource, FieldSources,
}

// Short names kept for callers of the original index names.
var fieldAliases = map[string]string{
	"name":       FieldDisplayName,
	"familyName": FieldFamilyName,
	"givenName":  FieldGivenName,
	"middleName": FieldMiddleName,
}

// CanonicalField resolves an alias to its canonical path.
// Returns false for names that are not contact fields.
func CanonicalField(name string) (string, bool) {
	if alias, ok := fieldAliases[name]; ok {
		return alias, true
	}
	if slices.Contains(Fields, name) {
		return name, true
	}
	return "", false
}

// Values returns the string values of field on r.
//
// Scalars yield at most one value; unset scalars yield none. Repeated-value
// fields yield one value per entry. The boolean is false only when field is
// not a contact field.
func (r Record) Values(field string) ([]string, bool) {
	canonical, ok := CanonicalField(field)
	if !ok {
		return nil, false
	}
	p := r.Properties
	switch canonical {
	case FieldID:
		return scalar(r.ID), true
	case FieldPublished:
		return timestamp(r.Published), true
	case FieldUpdated:
		return timestamp(r.Updated), true
	case FieldDisplayName:
		return scalar(p.DisplayName), true
	case FieldFamilyName:
		return scalar(p.Name.FamilyName), true
	case FieldGivenName:
		return scalar(p.Name.GivenName), true
	case FieldMiddleName:
		return scalar(p.Name.MiddleName), true
	case FieldHonorificPrefix:
		return scalar(p.Name.HonorificPrefix), true
	case FieldHonorificSuffix:
		return scalar(p.Name.HonorificSuffix), true
	case FieldNickname:
		return scalar(p.Nickname), true
	case FieldNote:
		return scalar(p.Note), true
	case FieldBirthday:
		return scalar(p.Birthday), true
	case FieldEmails:
		return entryValues(p.Emails), true
	case FieldPhoneNumbers:
		return entryValues(p.PhoneNumbers), true
	case FieldAddresses:
		return entryValues(p.Addresses), true
	case FieldIMs:
		return entryValues(p.IMs), true
	case FieldURLs:
		return entryValues(p.URLs), true
	case FieldOrganizations:
		return entryValues(p.Organizations), true
	case FieldPhotos:
		return entryValues(p.Photos), true
	case FieldCategories:
		return entryValues(p.Categories), true
	case FieldAccounts:
		var keys []string
		for _, a := range p.Accounts {
			keys = append(keys, a.Key())
		}
		return keys, true
	case FieldFrecency:
		return []string{strconv.FormatInt(r.Frecency, 10)}, true
	case FieldSource:
		return scalar(r.Source), true
	case FieldSources:
		return slices.Clone(r.Sources), true
	}
	return nil, false
}

func scalar(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func timestamp(t time.Time) []string {
	if t.IsZero() {
		return nil
	}
	return []string{FormatTime(t)}
}

func entryValues(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		if e.Value != "" {
			out = append(out, e.Value)
		}
	}
	return out
}

// TimeLayout is the storage and comparison format for timestamps.
const TimeLayout = time.RFC3339Nano

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a TimeLayout timestamp into UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
