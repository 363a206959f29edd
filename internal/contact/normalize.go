package contact

import "strings"

// Normalize prepares p for saving. Entries with an empty value are dropped
// from every repeated-value field, accounts missing either half are dropped,
// and DisplayName is derived from the name parts when the caller left it
// empty.
func (p *Properties) Normalize() {
	p.Emails = compactEntries(p.Emails)
	p.PhoneNumbers = compactEntries(p.PhoneNumbers)
	p.Addresses = compactEntries(p.Addresses)
	p.IMs = compactEntries(p.IMs)
	p.URLs = compactEntries(p.URLs)
	p.Organizations = compactEntries(p.Organizations)
	p.Photos = compactEntries(p.Photos)
	p.Categories = compactEntries(p.Categories)

	var accounts []Account
	for _, a := range p.Accounts {
		if a.Domain != "" && a.UserID != "" {
			accounts = append(accounts, a)
		}
	}
	p.Accounts = accounts

	if p.DisplayName == "" {
		p.DisplayName = DeriveDisplayName(p.Name)
	}
}

// DeriveDisplayName joins the given and family names with a single space.
func DeriveDisplayName(n Name) string {
	return strings.TrimSpace(n.GivenName + " " + n.FamilyName)
}

// Validate rejects entry types outside FieldTypes.
func (p Properties) Validate() error {
	for _, f := range p.repeated() {
		for i, e := range f.entries {
			if !e.Type.Valid() {
				return Errorf(InvalidArgument, "validate properties",
					"%s[%d]: unknown type %q", f.name, i, e.Type)
			}
		}
	}
	return nil
}

type repeatedField struct {
	name    string
	entries []Entry
}

// repeated lists each repeated-value field with its entries, in schema order.
func (p Properties) repeated() []repeatedField {
	return []repeatedField{
		{"emails", p.Emails},
		{"phoneNumbers", p.PhoneNumbers},
		{"addresses", p.Addresses},
		{"ims", p.IMs},
		{"urls", p.URLs},
		{"organizations", p.Organizations},
		{"photos", p.Photos},
		{"categories", p.Categories},
	}
}

func compactEntries(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if strings.TrimSpace(e.Value) == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}
