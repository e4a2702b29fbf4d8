package dto

// ClearHistorialResponse summarizes a compaction of the sheet
type ClearHistorialResponse struct {
	Message   string `json:"message"`
	Removed   int    `json:"removed"`
	Remaining int    `json:"remaining"`
	LastID    string `json:"last_id,omitempty"`
}

// ArchiveResponse reports an archive run: the backup written to disk and the following clear
type ArchiveResponse struct {
	Message    string                  `json:"message"`
	BackupPath string                  `json:"backup_path"`
	Clear      *ClearHistorialResponse `json:"clear,omitempty"`
}

// StoreHealthResponse reports the result of a probe read against the backing sheet
type StoreHealthResponse struct {
	Status      string `json:"status"`
	Provider    string `json:"provider"`
	Sheet       string `json:"sheet"`
	RowsProbed  int    `json:"rows_probed"`
	ClientEmail string `json:"client_email,omitempty"`
}
