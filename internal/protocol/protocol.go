// Package protocol defines the wire format spoken between client and
// server: a stream of JSON-encoded values over one TCP connection, one
// Response per Request, any number of exchanges per connection. JSON
// values are self-delimiting, so no extra framing is needed; both sides
// decode with a streaming json.Decoder.
package protocol

// Operations carried by a Request.
const (
	OpGet    = "get"
	OpSet    = "set"
	OpRemove = "rm"
)

// Statuses carried by a Response.
const (
	StatusOK    = "ok"
	StatusError = "err"
)

// Machine-readable error kinds, so the client can map failures back to
// typed errors without parsing messages.
const (
	KindNotFound   = "not_found"
	KindBadRequest = "bad_request"
	KindInternal   = "internal"
)

// Request is one command sent by the client.
type Request struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Response is the server's answer to one Request. Found distinguishes a
// get that hit an empty value from a get that missed.
type Response struct {
	Status string `json:"status"`
	Value  string `json:"value,omitempty"`
	Found  bool   `json:"found,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Ok is a success response with no payload, used for set, remove and a
// get that found nothing.
func Ok() Response {
	return Response{Status: StatusOK}
}

// FoundValue is a success response carrying a get result.
func FoundValue(value string) Response {
	return Response{Status: StatusOK, Value: value, Found: true}
}

// Fail is a failure response of the given kind with a human-readable
// message.
func Fail(kind, msg string) Response {
	return Response{Status: StatusError, Kind: kind, Error: msg}
}
