// Package ingest reads and writes batch files of contacts, observations and
// activities.
//
// Batch files are JSON, optionally with comments and trailing commas
// (JSONC). Every file is checked against an embedded CUE schema before it
// is decoded, so a malformed entry is reported with its path instead of
// surfacing later as a storage error.
package ingest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/tailscale/hujson"

	"github.com/roach88/rolodex/internal/contact"
)

//go:embed schema.cue
var schemaCUE string

// Batch is the on-disk shape of an import or export file.
type Batch struct {
	SchemaVersion int                   `json:"schemaVersion,omitempty"`
	Contacts      []contact.Record      `json:"contacts,omitempty"`
	Observations  []contact.Observation `json:"observations,omitempty"`
	Activities    []contact.Activity    `json:"activities,omitempty"`
}

// Empty reports whether b carries nothing to import.
func (b Batch) Empty() bool {
	return len(b.Contacts) == 0 && len(b.Observations) == 0 && len(b.Activities) == 0
}

type schema struct {
	ctx   *cue.Context
	batch cue.Value
}

var loadSchema = sync.OnceValues(func() (*schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile batch schema: %w", err)
	}
	batch := v.LookupPath(cue.ParsePath("#Batch"))
	if err := batch.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Batch: %w", err)
	}
	return &schema{ctx: ctx, batch: batch}, nil
})

// Parse validates and decodes a batch file's contents. Any problem with the
// input is InvalidArgument.
func Parse(name string, data []byte) (Batch, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Batch{}, contact.E(contact.InvalidArgument, "parse batch", fmt.Errorf("%s: invalid JSONC: %w", name, err))
	}

	if err := validate(name, standardized); err != nil {
		return Batch{}, err
	}

	var b Batch
	if err := json.Unmarshal(standardized, &b); err != nil {
		return Batch{}, contact.E(contact.InvalidArgument, "parse batch", fmt.Errorf("%s: %w", name, err))
	}
	return b, nil
}

// ReadFile reads and parses the batch file at path.
func ReadFile(path string) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		kind := contact.IO
		if os.IsPermission(err) {
			kind = contact.PermissionDenied
		} else if os.IsNotExist(err) {
			kind = contact.NotFound
		}
		return Batch{}, contact.E(kind, "read batch", err)
	}
	return Parse(path, data)
}

// validate unifies the document with #Batch.
func validate(name string, data []byte) error {
	s, err := loadSchema()
	if err != nil {
		return contact.E(contact.Unknown, "validate batch", err)
	}

	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return contact.E(contact.InvalidArgument, "validate batch", fmt.Errorf("%s: %w", name, err))
	}
	doc := s.ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return contact.E(contact.InvalidArgument, "validate batch", fmt.Errorf("%s: %w", name, err))
	}

	if err := s.batch.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return contact.E(contact.InvalidArgument, "validate batch", formatCUEError(name, err))
	}
	return nil
}

// maxReported caps how many schema violations are listed.
const maxReported = 5

// formatCUEError lists the first few violations, one per line.
func formatCUEError(name string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", name, err)
	}
	var lines []string
	for i, e := range errs {
		if i == maxReported {
			lines = append(lines, fmt.Sprintf("... and %d more", len(errs)-maxReported))
			break
		}
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := e.Path(); len(path) > 0 {
			msg = strings.Join(path, ".") + ": " + msg
		}
		lines = append(lines, msg)
	}
	return fmt.Errorf("%s: schema violation:\n  %s", name, strings.Join(lines, "\n  "))
}
