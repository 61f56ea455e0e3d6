//go:build tools

// Package tools pins generator/CLI dependencies that aren't imported
// by any production package, so `go mod tidy` doesn't drop them. swag
// generates the OpenAPI document from the @Summary/@Router annotations
// on the handlers in internal/adapters/driving/http.
package tools

import (
	_ "github.com/swaggo/swag/cmd/swag"
)
