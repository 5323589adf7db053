// Package schemas embeds the JSON Schemas used to validate source payloads,
// project config files and the recommendation document.
package schemas

import _ "embed"

//go:embed payload.schema.json
var PayloadSchemaJSON string

//go:embed recommendation.schema.json
var RecommendationSchemaJSON string

//go:embed config.schema.json
var ConfigSchemaJSON string
