// ABOUTME: Wire contract shared by the gateway and domain tool services.
// ABOUTME: Defines the RPC request/response envelope, call context, and error codes.

package envelope

// Stable error codes carried in the error.code field across both protocols.
const (
	CodeForbidden       = "FORBIDDEN"
	CodeToolNotFound    = "TOOL_NOT_FOUND"
	CodeValidationError = "VALIDATION_ERROR"
	CodeScopeMissing    = "SCOPE_MISSING"
	CodeUpstreamError   = "UPSTREAM_ERROR"
)

// RPCContext carries per-call caller identity and tracing information.
// It is built fresh for every inbound request and never persisted.
type RPCContext struct {
	TenantID  string   `json:"tenant_id,omitempty"`
	ActorID   string   `json:"actor_id,omitempty"`
	Scopes    []string `json:"scopes"`
	RequestID string   `json:"request_id"`
}

// RPCRequest is the body the gateway POSTs to a domain tool service.
type RPCRequest struct {
	Input   map[string]any `json:"input"`
	Context *RPCContext    `json:"context,omitempty"`
}

// RPCError describes a failed call: a stable machine-readable code, a
// human-readable message, and optional structured details.
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RPCResponse is a tagged union discriminated by OK. Exactly one of Data or
// Error is populated; the constructors below maintain that invariant.
type RPCResponse struct {
	OK    bool           `json:"ok"`
	Data  map[string]any `json:"data,omitempty"`
	Error *RPCError      `json:"error,omitempty"`
}

// OK builds a success response carrying the given data.
func OK(data map[string]any) *RPCResponse {
	return &RPCResponse{OK: true, Data: data}
}

// Err builds a failure response with the given code and message.
func Err(code, message string) *RPCResponse {
	return &RPCResponse{OK: false, Error: &RPCError{Code: code, Message: message}}
}

// ErrDetails builds a failure response carrying structured details.
func ErrDetails(code, message string, details any) *RPCResponse {
	return &RPCResponse{OK: false, Error: &RPCError{Code: code, Message: message, Details: details}}
}
