package mw

import "encoding/json"

// Kind classifies the outcome of one lookup call.
type Kind string

const (
	// KindSuccess means the service returned a parsed entry body.
	KindSuccess Kind = "success"
	// KindNotFound means the service has no entry for the word. This is a
	// terminal per-word outcome, not an error.
	KindNotFound Kind = "not_found"
	// KindNetworkError means the call failed after exhausting retries, or
	// returned an unusable response. The batch continues past it.
	KindNetworkError Kind = "network_error"
	// KindRateLimited means the service itself refused the call for quota
	// reasons. The whole batch must stop; the word's status is unknown.
	KindRateLimited Kind = "rate_limited"
)

// Result is the classified outcome of a single lookup call. Payload holds
// the verbatim response body on success and is opaque to this program.
type Result struct {
	Kind        Kind
	Payload     json.RawMessage
	Suggestions []string
	Detail      string
}
