// Package contracts validates data crossing the pipeline boundary
// against versioned JSON schemas. Listings that fail validation are
// rejected before they reach storage.
package contracts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/normalized-listing/v1.json
var normalizedListingSchemaV1 string

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	const schemaURL = "https://rentify.nl/schemas/normalized-listing/v1.json"
	if err := compiler.AddResource(schemaURL, strings.NewReader(normalizedListingSchemaV1)); err != nil {
		log.Fatalf("failed to register schema %s: %v", schemaURL, err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		log.Fatalf("failed to compile schema %s: %v", schemaURL, err)
	}

	compiledSchemas["NormalizedListing/1.0.0"] = schema
}

// Validate checks a payload against the schema registered for the given
// type and version.
func Validate(payloadType, payloadVersion string, body []byte) error {
	key := fmt.Sprintf("%s/%s", payloadType, payloadVersion)
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema for payload '%s' version '%s' not found", payloadType, payloadVersion)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}

	return nil
}

// ValidateListing marshals a listing and runs it through the current
// NormalizedListing schema.
func ValidateListing(listing interface{}) error {
	body, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing for validation: %w", err)
	}
	return Validate("NormalizedListing", "1.0.0", body)
}
