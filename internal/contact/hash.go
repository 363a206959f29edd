package contact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
)

// DomainMerged separates merged-identity hashes from any other use of the
// same canonical bytes. The version suffix allows a future algorithm change.
const DomainMerged = "rolodex/merged/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MergedID derives a stable record id for a merged identity from its source
// keys. The keys are sorted first, so the id depends on the set and not on
// the order the merge engine discovered them in.
func MergedID(sources []string) (string, error) {
	if len(sources) == 0 {
		return "", Errorf(InvalidArgument, "merged id", "merged contact has no sources")
	}
	sorted := slices.Clone(sources)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	list := make([]any, len(sorted))
	for i, s := range sorted {
		list[i] = s
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("merged id: %w", err)
	}
	return hashWithDomain(DomainMerged, canonical), nil
}
