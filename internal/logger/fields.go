package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the call chain (context level).
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the scraping job ID
	FieldJobID = "job_id"

	// FieldTask is the scheduled task name
	FieldTask = "task"

	// FieldRetailer is the retailer slug being processed
	FieldRetailer = "retailer"

	// FieldAlertID is the price alert ID
	FieldAlertID = "alert_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields used for aggregation and alerting (entry level).
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldSize is a response/payload size in bytes
	FieldSize = "size"
)
