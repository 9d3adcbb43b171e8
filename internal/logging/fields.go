package logging

const (
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	FieldService = "service"
	FieldUserID  = "user_id"

	FieldSessionID = "session_id"
	FieldRecipient = "recipient"
	FieldKind      = "kind"
	FieldGuildID   = "guild_id"
)
