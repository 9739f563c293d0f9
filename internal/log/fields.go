package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldIdentifier = "identifier"
	FieldRegistryID = "registry_id"
	FieldTitle      = "title"
	FieldPath       = "path"
	FieldStage      = "stage"
	FieldCount      = "count"
	FieldFailures   = "failures"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBackend    = "backend"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentTricount = "tricount"
	ComponentBatch    = "batch"
	ComponentExport   = "export"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentSheets   = "sheets"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpAuthenticate = "authenticate"
	OpFetch        = "fetch"
	OpParse        = "parse"
	OpDerive       = "derive"
	OpExport       = "export"
	OpRecord       = "record"
	OpPublish      = "publish"
	OpStartup      = "startup"
	OpShutdown     = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithIdentifier adds the registry identifier being processed
func (f LogFields) WithIdentifier(identifier string) LogFields {
	f[FieldIdentifier] = identifier
	return f
}

// WithRegistry adds registry fields
func (f LogFields) WithRegistry(id int64, title string) LogFields {
	f[FieldRegistryID] = id
	f[FieldTitle] = title
	return f
}

// WithDuration adds an elapsed time in milliseconds
func (f LogFields) WithDuration(ms int64) LogFields {
	f[FieldDuration] = ms
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
