package sync

import "time"

// Change actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Per-item result statuses
const (
	StatusApplied         = "applied"
	StatusSkippedConflict = "skipped_conflict"
	StatusNotFound        = "not_found"
	StatusError           = "error"
)

// Change is one client-submitted unit of work for a single document. It only
// lives for the duration of one upload request.
type Change struct {
	ID             string                 `json:"id,omitempty"`
	Action         string                 `json:"action"`
	Data           map[string]interface{} `json:"data"`
	BaseUpdatedAt  *time.Time             `json:"baseUpdatedAt,omitempty"`
	LocalUpdatedAt *time.Time             `json:"localUpdatedAt,omitempty"`
}

// CollectionUpload groups the changes for one logical collection
type CollectionUpload struct {
	Name    string   `json:"name"`
	Changes []Change `json:"changes"`
}

// UploadRequest is the batched payload from an offline client
type UploadRequest struct {
	Collections []CollectionUpload `json:"collections"`
}

// ItemResult reports the outcome for a single change. Conflicts carry the
// full current server document so the client can resolve without a follow-up
// fetch.
type ItemResult struct {
	ID             string                 `json:"id,omitempty"`
	Action         string                 `json:"action"`
	Status         string                 `json:"status"`
	Message        string                 `json:"message,omitempty"`
	ServerDocument map[string]interface{} `json:"serverDocument,omitempty"`
}

// CollectionUploadResult aggregates the per-item results for one collection
type CollectionUploadResult struct {
	Name    string       `json:"name"`
	Results []ItemResult `json:"results"`
}

// UploadResponse carries all collection results plus the server's clock
// reference for this batch
type UploadResponse struct {
	Collections []CollectionUploadResult `json:"collections"`
	ServerTime  time.Time                `json:"serverTime"`
}

// CollectionDownloadRequest asks for one collection's documents changed
// after the optional watermark
type CollectionDownloadRequest struct {
	Name  string     `json:"name"`
	Since *time.Time `json:"since,omitempty"`
}

// DownloadRequest is the batched incremental download payload
type DownloadRequest struct {
	Collections []CollectionDownloadRequest `json:"collections"`
}

// CollectionDownloadResult carries the matching documents and the serverTime
// the client should persist as its next watermark
type CollectionDownloadResult struct {
	Name       string                   `json:"name"`
	Items      []map[string]interface{} `json:"items"`
	ServerTime time.Time                `json:"serverTime"`
}

// DownloadResponse aggregates per-collection download results
type DownloadResponse struct {
	Collections []CollectionDownloadResult `json:"collections"`
}
