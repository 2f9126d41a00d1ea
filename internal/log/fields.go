package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldEmail      = "email"
	FieldTxID       = "transaction_id"
	FieldKind       = "kind"
	FieldCategory   = "category"
	FieldAmount     = "amount_cents"
	FieldMonth      = "month"
	FieldYear       = "year"
	FieldBackend    = "backend"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentLedger = "ledger"
	ComponentStore  = "store"
	ComponentAuth   = "auth"
	ComponentOAuth  = "oauth"
	ComponentReport = "report"
	ComponentEvents = "events"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpList     = "list"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpFilter   = "filter"
	OpClear    = "clear"
	OpLoad     = "load"
	OpSave     = "save"
	OpRegister = "register"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpExchange = "exchange"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
