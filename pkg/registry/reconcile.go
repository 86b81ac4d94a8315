package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/philfreshman/diffpack/pkg/errors"
)

//go:embed schema/search_results.schema.json
var searchResultsSchema []byte

//go:embed schema/versions.schema.json
var versionsSchema []byte

// Reconciler enforces the adapter contract at the boundary between
// backend-native responses and the uniform result shape. Adapters run
// every outgoing payload through it, so a misbehaving upstream surfaces
// as a parse error instead of leaking malformed records to callers.
type Reconciler struct {
	results  *jsonschema.Schema
	versions *jsonschema.Schema
}

// NewReconciler compiles the embedded result schemas.
func NewReconciler() (*Reconciler, error) {
	results, err := compileSchema("search_results.schema.json", searchResultsSchema)
	if err != nil {
		return nil, err
	}
	versions, err := compileSchema("versions.schema.json", versionsSchema)
	if err != nil {
		return nil, err
	}
	return &Reconciler{results: results, versions: versions}, nil
}

func compileSchema(name string, raw []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// Results truncates a result set to [MaxResults] and validates it.
// Truncation happens before validation so an over-long upstream page is
// trimmed rather than rejected.
func (r *Reconciler) Results(results []SearchResult) ([]SearchResult, error) {
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	if err := r.validate(r.results, results); err != nil {
		return nil, err
	}
	return results, nil
}

// Versions validates a version list. Order is preserved untouched; each
// backend's own ordering convention is part of the contract.
func (r *Reconciler) Versions(versions []string) ([]string, error) {
	if versions == nil {
		versions = []string{}
	}
	if err := r.validate(r.versions, versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *Reconciler) validate(schema *jsonschema.Schema, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "encode registry response")
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "decode registry response")
	}
	if err := schema.Validate(instance); err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "registry response failed validation")
	}
	return nil
}
