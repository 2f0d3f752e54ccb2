// Package schemas embeds the JSON Schemas enforced at the HTTP boundary.
package schemas

import _ "embed"

// OrchestrateSchemaJSON is the JSON Schema for POST /api/orchestrate
// request bodies.
//
//go:embed orchestrate.schema.json
var OrchestrateSchemaJSON string
