package models

// DefaultVersion is recorded when an upload does not carry a version.
const DefaultVersion = "1.0.0"

// AppRecord is the unit of persistence shared by every backend.
type AppRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Size        int64  `json:"size"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Filename    string `json:"filename"`
	UploadedAt  int64  `json:"uploadedAt"` // epoch milliseconds
}

// UploadMetadata is what the caller supplies on upload. Identity, storage
// name and timestamp are minted by the backend.
type UploadMetadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Size        int64  `json:"size"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// StorageConfig is persisted next to the index so the managed directory can
// change without rewriting app records.
type StorageConfig struct {
	StoragePath string `json:"storagePath,omitempty"`
}

// BackendKind tags the concrete backend behind the facade.
type BackendKind string

const (
	BackendLocal BackendKind = "local"
	BackendDrive BackendKind = "drive"
	BackendR2    BackendKind = "r2"
)

// Result is the success flag plus optional message returned to the UI for
// operations that never fail hard.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func OK() Result {
	return Result{Success: true}
}

func Failed(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
