//go:build tools

package tools

// CLI tools pinned in go.mod: oapi-codegen checks api/openapi.yaml against
// the handlers, goose applies internal/adapters/postgres/migrations by hand.

import (
	_ "github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen"
	_ "github.com/pressly/goose/v3/cmd/goose"
)
