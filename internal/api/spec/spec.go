// Package spec serves the API's OpenAPI document.
package spec

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.yaml
var openAPI []byte

func OpenAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(openAPI)
	}
}
