package sessiongate

import (
	"strings"
)

// DeniedMessage is the denial payload body text returned to API-shaped
// requests. The byte sequence is part of the public contract and must not be
// localized or reworded.
const DeniedMessage = "접근 권한이 없습니다."

// ResponseKind defines a public type used by sessiongate APIs.
//
// ResponseKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ResponseKind uint8

const (
	// RenderView directs a denied request to the HTML denial view.
	RenderView ResponseKind = iota
	// JSONPayload directs a denied request to a 401 JSON body.
	JSONPayload
)

// DeniedPayload is the JSON document written for [JSONPayload] denials.
type DeniedPayload struct {
	Message string `json:"message"`
}

// ClassifyContentType decides the denial shape from the request Content-Type
// header. The check is a raw, case-sensitive containment test: only header
// values that literally contain "application/json" or "multipart/form-data"
// are treated as API calls; everything else, including an absent header,
// falls back to the HTML view. Suffixed media types such as
// "application/json-patch+json" therefore count as JSON, and an uppercased
// value does not.
func ClassifyContentType(contentType string) ResponseKind {
	if strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "multipart/form-data") {
		return JSONPayload
	}
	return RenderView
}
