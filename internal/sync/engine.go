package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine reconciles batched offline edits against the server's current
// state. There is no per-document version counter: updatedAt is the
// optimistic-concurrency token, which means two server-side writes inside
// the same clock tick are indistinguishable. That trade is accepted;
// conflicts are surfaced, not silently merged, and the unit of isolation is
// a single-document compare-and-set.
type Engine struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewEngine(db *gorm.DB, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{db: db, log: log}
}

// Upload applies a batch of client changes. Collections and the changes
// within them are processed sequentially; one failing item never blocks its
// siblings. tenantID is the caller's scope from the authorization gate and
// is forced onto every tenant-scoped write regardless of what the client
// claims; nil means an unscoped (super_admin) caller.
func (e *Engine) Upload(tenantID *string, req UploadRequest) *UploadResponse {
	serverNow := time.Now().UTC()
	resp := &UploadResponse{
		Collections: make([]CollectionUploadResult, 0, len(req.Collections)),
		ServerTime:  serverNow,
	}

	for _, cu := range req.Collections {
		coll, ok := registry[cu.Name]
		if !ok {
			// Entire collection name invalid: one error result for the batch
			resp.Collections = append(resp.Collections, CollectionUploadResult{
				Name: cu.Name,
				Results: []ItemResult{{
					Action:  "error",
					Status:  StatusError,
					Message: fmt.Sprintf("Collection '%s' is not allowed for sync", cu.Name),
				}},
			})
			continue
		}

		results := make([]ItemResult, 0, len(cu.Changes))
		for _, change := range cu.Changes {
			results = append(results, e.applyChange(coll, cu.Name, tenantID, change, serverNow))
		}
		resp.Collections = append(resp.Collections, CollectionUploadResult{
			Name:    cu.Name,
			Results: results,
		})
	}

	return resp
}

func (e *Engine) applyChange(coll collection, name string, tenantID *string, change Change, serverNow time.Time) ItemResult {
	result := ItemResult{ID: change.ID, Action: change.Action}

	switch change.Action {
	case ActionCreate:
		return e.applyCreate(coll, tenantID, change, serverNow, result)
	case ActionUpdate, ActionDelete:
		if _, err := uuid.Parse(change.ID); err != nil {
			result.Status = StatusNotFound
			if change.ID == "" {
				result.Message = "Missing document ID for update/delete"
			} else {
				result.Message = "Invalid document ID"
			}
			return result
		}

		existing, err := e.fetchExisting(coll, tenantID, change.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Status = StatusNotFound
			result.Message = "Document not found on server"
			return result
		}
		if err != nil {
			e.log.Error("Sync fetch failed",
				zap.String("collection", name), zap.String("id", change.ID), zap.Error(err))
			result.Status = StatusError
			result.Message = err.Error()
			return result
		}

		if change.Action == ActionUpdate {
			return e.applyUpdate(coll, tenantID, change, existing, serverNow, result)
		}
		return e.applyDelete(coll, change, result)
	default:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Unknown action '%s'", change.Action)
		return result
	}
}

func (e *Engine) fetchExisting(coll collection, tenantID *string, id string) (map[string]interface{}, error) {
	query := e.db.Table(coll.table).Where("id = ?", id)
	if coll.tenantScoped && tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	existing := map[string]interface{}{}
	if err := query.Take(&existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func (e *Engine) applyCreate(coll collection, tenantID *string, change Change, serverNow time.Time, result ItemResult) ItemResult {
	doc := sanitize(coll, change.Data)

	// Honor a genuine server id so a previously-accepted create replays
	// idempotently; client-local placeholder ids are dropped
	id := ""
	if _, err := uuid.Parse(change.ID); err == nil {
		id = change.ID
	} else {
		id = uuid.NewString()
	}
	doc["id"] = id

	if coll.tenantScoped && tenantID != nil {
		doc["tenant_id"] = *tenantID
	}
	doc["updated_at"] = serverNow
	if _, ok := doc["created_at"]; !ok {
		doc["created_at"] = serverNow
	}

	if err := e.db.Table(coll.table).Create(&doc).Error; err != nil {
		e.log.Error("Sync create failed", zap.String("table", coll.table), zap.Error(err))
		result.Status = StatusError
		result.Message = err.Error()
		return result
	}

	result.ID = id
	result.Status = StatusApplied
	return result
}

func (e *Engine) applyUpdate(coll collection, tenantID *string, change Change, existing map[string]interface{}, serverNow time.Time, result ItemResult) ItemResult {
	// Conflict detection: the version the client last saw against the
	// version currently on the server. A missing timestamp on either side
	// means the client has no opinion, so the change applies.
	serverUpdatedAt := parseTime(existing["updated_at"])
	if change.BaseUpdatedAt != nil && !serverUpdatedAt.IsZero() &&
		serverUpdatedAt.After(*change.BaseUpdatedAt) {
		result.Status = StatusSkippedConflict
		result.Message = "Server document is newer than client base version"
		result.ServerDocument = normalize(coll, existing)
		return result
	}

	updates := sanitize(coll, change.Data)
	if coll.tenantScoped && tenantID != nil {
		updates["tenant_id"] = *tenantID
	}
	updates["updated_at"] = serverNow

	if err := e.db.Table(coll.table).Where("id = ?", change.ID).Updates(updates).Error; err != nil {
		e.log.Error("Sync update failed", zap.String("table", coll.table), zap.Error(err))
		result.Status = StatusError
		result.Message = err.Error()
		return result
	}

	result.Status = StatusApplied
	return result
}

func (e *Engine) applyDelete(coll collection, change Change, result ItemResult) ItemResult {
	// The document was already resolved under the caller's tenant scope, so
	// deleting by id alone is safe here
	if err := e.db.Exec("DELETE FROM "+coll.table+" WHERE id = ?", change.ID).Error; err != nil {
		e.log.Error("Sync delete failed", zap.String("table", coll.table), zap.Error(err))
		result.Status = StatusError
		result.Message = err.Error()
		return result
	}
	result.Status = StatusApplied
	return result
}

// Download streams all documents changed after the per-collection watermark.
// Deletions are not tracked as tombstones: a client that needs to detect
// remote deletes must run a full reconciliation pass (no since filter) and
// diff ids.
func (e *Engine) Download(tenantID *string, req DownloadRequest) *DownloadResponse {
	serverNow := time.Now().UTC()
	resp := &DownloadResponse{
		Collections: make([]CollectionDownloadResult, 0, len(req.Collections)),
	}

	for _, cd := range req.Collections {
		coll, ok := registry[cd.Name]
		if !ok {
			// Invalid names yield an empty result, not a failed request
			resp.Collections = append(resp.Collections, CollectionDownloadResult{
				Name:       cd.Name,
				Items:      []map[string]interface{}{},
				ServerTime: serverNow,
			})
			continue
		}

		query := e.db.Table(coll.table)
		if coll.tenantScoped && tenantID != nil {
			query = query.Where("tenant_id = ?", *tenantID)
		}
		if cd.Since != nil {
			query = query.Where("updated_at > ?", *cd.Since)
		}

		var rows []map[string]interface{}
		if err := query.Find(&rows).Error; err != nil {
			e.log.Error("Sync download query failed",
				zap.String("collection", cd.Name), zap.Error(err))
			rows = nil
		}

		items := make([]map[string]interface{}, 0, len(rows))
		for _, row := range rows {
			items = append(items, normalize(coll, row))
		}

		resp.Collections = append(resp.Collections, CollectionDownloadResult{
			Name:       cd.Name,
			Items:      items,
			ServerTime: serverNow,
		})
	}

	return resp
}

// sanitize keeps only the collection's allowed columns, which also strips
// client-side bookkeeping fields (_synced, _updatedAt, _isNew, ids, tenant
// ids). JSON-typed columns are re-encoded for storage.
func sanitize(coll collection, data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		if !coll.columns[key] {
			continue
		}
		if coll.jsonColumns[key] {
			encoded, err := json.Marshal(value)
			if err != nil {
				continue
			}
			out[key] = string(encoded)
		} else {
			out[key] = value
		}
	}
	return out
}

// normalize prepares a stored row for the wire: byte slices become strings
// and JSON-typed columns are decoded back into structured values.
func normalize(coll collection, row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for key, value := range row {
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		if coll.jsonColumns[key] {
			if s, ok := value.(string); ok && s != "" {
				var decoded interface{}
				if err := json.Unmarshal([]byte(s), &decoded); err == nil {
					value = decoded
				}
			}
		}
		out[key] = value
	}
	return out
}

// parseTime extracts a timestamp from whatever the driver returned for a
// time column
func parseTime(value interface{}) time.Time {
	switch v := value.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case []byte:
		return parseTimeString(string(v))
	case string:
		return parseTimeString(v)
	}
	return time.Time{}
}

func parseTimeString(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
