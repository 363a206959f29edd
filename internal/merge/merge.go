package merge

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rolodex/internal/contact"
)

// MergeContactList merges observations into the minimal set of identities
// the witness rules allow. Output is in order of each identity's first
// observation.
//
// An observation with no source identity is InvalidArgument and nothing is
// returned.
func MergeContactList(obs []contact.Observation) ([]contact.MergedContact, error) {
	m := newMerger(len(obs))
	for i, o := range obs {
		if err := o.Validate(); err != nil {
			return nil, contact.E(contact.InvalidArgument, "merge", fmt.Errorf("observation %d: %w", i, err))
		}
		m.add(o)
	}
	return m.roots(), nil
}

// MergeRecords merges stored records. Imported and previously merged
// records keep their provenance keys; local records are keyed "local.<id>".
func MergeRecords(recs []contact.Record) ([]contact.MergedContact, error) {
	obs := make([]contact.Observation, len(recs))
	for i, r := range recs {
		obs[i] = contact.ObservationFromRecord(r)
	}
	return MergeContactList(obs)
}

// Observations turns merge output back into merge input, keeping each
// identity's sources so a second pass regroups nothing it already grouped.
func Observations(merged []contact.MergedContact) []contact.Observation {
	obs := make([]contact.Observation, len(merged))
	for i, mc := range merged {
		obs[i] = contact.Observation{
			Sources:    slices.Clone(mc.Sources),
			Properties: mc.Properties.Clone(),
			Frecency:   mc.Frecency,
		}
	}
	return obs
}

// merger holds the identities built so far and the witness indexes that
// point into them.
type merger struct {
	identities []*contact.MergedContact

	// parent[i] == i marks a surviving identity.
	parent []int

	byEmail   map[string]int
	byAccount map[string]int
	byName    map[string]int
}

func newMerger(capacity int) *merger {
	return &merger{
		identities: make([]*contact.MergedContact, 0, capacity),
		parent:     make([]int, 0, capacity),
		byEmail:    make(map[string]int),
		byAccount:  make(map[string]int),
		byName:     make(map[string]int),
	}
}

// find returns the surviving identity for i, compressing the path.
func (m *merger) find(i int) int {
	root := i
	for m.parent[root] != root {
		root = m.parent[root]
	}
	for m.parent[i] != root {
		next := m.parent[i]
		m.parent[i] = root
		i = next
	}
	return root
}

func (m *merger) add(o contact.Observation) {
	matches := m.matches(o)

	var target int
	if len(matches) == 0 {
		target = m.newIdentity(o)
	} else {
		target = matches[0]
		Into(m.identities[target], fromObservation(o))
		for _, other := range matches[1:] {
			Into(m.identities[target], *m.identities[other])
			m.parent[other] = target
			m.identities[other] = nil
		}
	}
	m.register(o, target)
}

// matches returns the distinct surviving identities o matches, emails
// first, then accounts, then displayName if nothing else matched.
func (m *merger) matches(o contact.Observation) []int {
	var roots []int
	add := func(idx int) {
		r := m.find(idx)
		if !slices.Contains(roots, r) {
			roots = append(roots, r)
		}
	}

	for _, email := range o.EmailValues() {
		if idx, ok := m.byEmail[email]; ok {
			add(idx)
		}
	}
	for _, a := range o.Accounts {
		if idx, ok := m.byAccount[a.Key()]; ok {
			add(idx)
		}
	}
	if len(roots) == 0 && o.DisplayName != "" {
		if idx, ok := m.byName[o.DisplayName]; ok {
			add(idx)
		}
	}
	return roots
}

// register points every witness key of o that is not yet known at target.
func (m *merger) register(o contact.Observation, target int) {
	for _, email := range o.EmailValues() {
		if _, ok := m.byEmail[email]; !ok {
			m.byEmail[email] = target
		}
	}
	for _, a := range o.Accounts {
		if a.Domain == "" || a.UserID == "" {
			continue
		}
		if _, ok := m.byAccount[a.Key()]; !ok {
			m.byAccount[a.Key()] = target
		}
	}
	if o.DisplayName != "" {
		if _, ok := m.byName[o.DisplayName]; !ok {
			m.byName[o.DisplayName] = target
		}
	}
}

func (m *merger) newIdentity(o contact.Observation) int {
	mc := fromObservation(o)
	m.identities = append(m.identities, &mc)
	idx := len(m.parent)
	m.parent = append(m.parent, idx)
	return idx
}

// roots returns the surviving identities in creation order.
func (m *merger) roots() []contact.MergedContact {
	out := []contact.MergedContact{}
	for i := range m.parent {
		if m.find(i) == i {
			out = append(out, *m.identities[i])
		}
	}
	return out
}

func fromObservation(o contact.Observation) contact.MergedContact {
	var sources []string
	for _, k := range o.Keys() {
		if !slices.Contains(sources, k) {
			sources = append(sources, k)
		}
	}
	return contact.MergedContact{
		Properties: o.Properties.Clone(),
		Sources:    sources,
		Frecency:   o.Frecency,
	}
}

// Into merges src into dst.
//
//   - Sources: union, dst order first
//   - Frecency: summed
//   - DisplayName: src wins only with strictly more words
//   - Repeated fields: src entries appended unless dst has the same value
//   - Other scalars: dst keeps any value it already has
func Into(dst *contact.MergedContact, src contact.MergedContact) {
	for _, s := range src.Sources {
		if !slices.Contains(dst.Sources, s) {
			dst.Sources = append(dst.Sources, s)
		}
	}
	dst.Frecency += src.Frecency

	d, s := &dst.Properties, src.Properties
	if len(strings.Fields(s.DisplayName)) > len(strings.Fields(d.DisplayName)) {
		d.DisplayName = s.DisplayName
	}

	firstWins(&d.Name.FamilyName, s.Name.FamilyName)
	firstWins(&d.Name.GivenName, s.Name.GivenName)
	firstWins(&d.Name.HonorificPrefix, s.Name.HonorificPrefix)
	firstWins(&d.Name.HonorificSuffix, s.Name.HonorificSuffix)
	firstWins(&d.Name.MiddleName, s.Name.MiddleName)
	firstWins(&d.Nickname, s.Nickname)
	firstWins(&d.Note, s.Note)
	firstWins(&d.Birthday, s.Birthday)

	d.Emails = unionEntries(d.Emails, s.Emails)
	d.PhoneNumbers = unionEntries(d.PhoneNumbers, s.PhoneNumbers)
	d.Addresses = unionEntries(d.Addresses, s.Addresses)
	d.IMs = unionEntries(d.IMs, s.IMs)
	d.URLs = unionEntries(d.URLs, s.URLs)
	d.Organizations = unionEntries(d.Organizations, s.Organizations)
	d.Photos = unionEntries(d.Photos, s.Photos)
	d.Categories = unionEntries(d.Categories, s.Categories)

	for _, a := range s.Accounts {
		if !slices.ContainsFunc(d.Accounts, func(b contact.Account) bool { return b.Key() == a.Key() }) {
			d.Accounts = append(d.Accounts, a)
		}
	}
}

func firstWins(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

func unionEntries(dst, src []contact.Entry) []contact.Entry {
	for _, e := range src {
		if e.Value == "" {
			continue
		}
		if !slices.ContainsFunc(dst, func(x contact.Entry) bool { return x.Value == e.Value }) {
			dst = append(dst, e)
		}
	}
	return dst
}
