package log

import "easyfinances/internal/core"

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldDescription   = "description"
	FieldAmountCents   = "amount_cents"
	FieldDate          = "date"
	FieldKind          = "kind"
	FieldSeriesID      = "series_id"
	FieldScope         = "scope"
	FieldOccurrences   = "occurrences"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldKey           = "key"
	FieldDeviceID      = "device_id"
)

const (
	ComponentApp           = "app"
	ComponentHTTP          = "http"
	ComponentStorage       = "storage"
	ComponentAMQP          = "amqp"
	ComponentWorker        = "worker"
	ComponentHolidays      = "holidays"
	ComponentCache         = "cache"
	ComponentNotifications = "notifications"
	ComponentCLI           = "cli"
)

const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpAck      = "ack"
	OpDismiss  = "dismiss"
	OpLogout   = "logout"
	OpSync     = "sync"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the identifying fields of a transaction.
func (f LogFields) WithTransaction(t core.Transaction) LogFields {
	f[FieldTransactionID] = t.ID
	f[FieldDescription] = t.Description
	f[FieldAmountCents] = t.Amount.Cents()
	f[FieldDate] = t.Date.String()
	if t.Kind != "" {
		f[FieldKind] = string(t.Kind)
	}
	if id := t.SeriesID(); id != 0 {
		f[FieldSeriesID] = id
	}
	return f
}

// WithInput adds the fields of a write request.
func (f LogFields) WithInput(in core.TransactionInput) LogFields {
	f[FieldDescription] = in.Description
	f[FieldAmountCents] = in.Amount.Cents()
	f[FieldDate] = in.Date.String()
	return f
}

func (f LogFields) WithHTTP(method, path string, status int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = status
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
