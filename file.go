package tp

type FileType string

const (
	FileExcel  FileType = "excel"
	FileReport FileType = "report"
)

// GeneratedFile is a trajectory export produced by the backend.
type GeneratedFile struct {
	Filename    string   `json:"filename"`
	PreviewURL  string   `json:"preview_url"`
	DownloadURL string   `json:"download_url"`
	Type        FileType `json:"type"`
	CreatedAt   Time     `json:"created_at"`
}

// FileRepository keeps the generated files of each task across runs.
type FileRepository interface {
	List(taskID int) ([]GeneratedFile, error)
	// Upsert replaces the entry with the same filename or appends it.
	Upsert(taskID int, file GeneratedFile) error
	Delete(taskID int, filename string) error
	Clear(taskID int) error
}
