package recorder

// RunEvent holds the outcome of one (reference date, period) unit.
type RunEvent struct {
	Period        string
	ReferenceDate string // YYYY-MM-DD or "current"
	Provider      string
	SymbolsOK     int
	SymbolsFailed int
	Status        string // "OK", "NO_DATA", "PARTIAL", "ERROR"
	JSONPath      string
	Artifacts     string // comma separated
	Error         string
}

// UploadEvent records one published image.
type UploadEvent struct {
	Period    string
	LocalPath string
	URL       string
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecordUpload(evt *UploadEvent) error
	Close() error
}
