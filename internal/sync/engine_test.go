package sync

import (
	"testing"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(&model.Product{}, &model.Customer{}, &model.Invoice{})
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewEngine(db, nil), db
}

func singleResult(t *testing.T, resp *UploadResponse) ItemResult {
	t.Helper()
	if len(resp.Collections) != 1 || len(resp.Collections[0].Results) != 1 {
		t.Fatalf("expected one result, got %+v", resp)
	}
	return resp.Collections[0].Results[0]
}

func uploadOne(t *testing.T, e *Engine, tenantID *string, name string, change Change) ItemResult {
	t.Helper()
	resp := e.Upload(tenantID, UploadRequest{
		Collections: []CollectionUpload{{Name: name, Changes: []Change{change}}},
	})
	return singleResult(t, resp)
}

func TestUploadCreateAssignsServerID(t *testing.T) {
	e, db := newTestEngine(t)
	tid := uuid.NewString()

	result := uploadOne(t, e, &tid, "products", Change{
		ID:     "local-temp-7", // client placeholder, not a server id
		Action: ActionCreate,
		Data: map[string]interface{}{
			"name":       "Keyboard",
			"sku":        "KB-01",
			"stock":      5,
			"sale_price": 49.5,
			"_isNew":     true, // client bookkeeping must be stripped
		},
	})
	if result.Status != StatusApplied {
		t.Fatalf("expected applied, got %q (%s)", result.Status, result.Message)
	}
	if _, err := uuid.Parse(result.ID); err != nil {
		t.Fatalf("expected a server-assigned uuid, got %q", result.ID)
	}

	var stored model.Product
	if err := db.Where("id = ?", result.ID).First(&stored).Error; err != nil {
		t.Fatalf("created document not found: %v", err)
	}
	if stored.TenantID != tid {
		t.Fatalf("create must be stamped with the caller's tenant, got %q", stored.TenantID)
	}
	if stored.Name != "Keyboard" || stored.Stock != 5 {
		t.Fatalf("unexpected stored product: %+v", stored)
	}
}

func TestUploadCreateHonorsExistingServerID(t *testing.T) {
	e, _ := newTestEngine(t)
	tid := uuid.NewString()
	id := uuid.NewString()

	result := uploadOne(t, e, &tid, "products", Change{
		ID:     id,
		Action: ActionCreate,
		Data:   map[string]interface{}{"name": "Mouse"},
	})
	if result.Status != StatusApplied || result.ID != id {
		t.Fatalf("expected applied with kept id %q, got %+v", id, result)
	}
}

func TestUploadUpdateNoConflict(t *testing.T) {
	e, db := newTestEngine(t)
	tid := uuid.NewString()

	created := uploadOne(t, e, &tid, "products", Change{
		Action: ActionCreate,
		Data:   map[string]interface{}{"name": "Monitor", "stock": 3},
	})

	var stored model.Product
	db.Where("id = ?", created.ID).First(&stored)
	base := stored.UpdatedAt

	result := uploadOne(t, e, &tid, "products", Change{
		ID:            created.ID,
		Action:        ActionUpdate,
		Data:          map[string]interface{}{"stock": 9},
		BaseUpdatedAt: &base,
	})
	if result.Status != StatusApplied {
		t.Fatalf("expected applied, got %q (%s)", result.Status, result.Message)
	}

	db.Where("id = ?", created.ID).First(&stored)
	if stored.Stock != 9 {
		t.Fatalf("update not applied, stock %d", stored.Stock)
	}
	if !stored.UpdatedAt.After(base) {
		t.Fatal("updated_at watermark must advance on a server write")
	}
}

func TestUploadUpdateConflictLeavesServerStateUntouched(t *testing.T) {
	e, db := newTestEngine(t)
	tid := uuid.NewString()

	created := uploadOne(t, e, &tid, "products", Change{
		Action: ActionCreate,
		Data:   map[string]interface{}{"name": "Printer", "stock": 2},
	})

	// Client base predates the server's version: someone else wrote since
	staleBase := time.Now().UTC().Add(-time.Hour)
	result := uploadOne(t, e, &tid, "products", Change{
		ID:            created.ID,
		Action:        ActionUpdate,
		Data:          map[string]interface{}{"stock": 100},
		BaseUpdatedAt: &staleBase,
	})
	if result.Status != StatusSkippedConflict {
		t.Fatalf("expected skipped_conflict, got %q (%s)", result.Status, result.Message)
	}
	if result.ServerDocument == nil {
		t.Fatal("conflict result must carry the current server document")
	}
	if name, _ := result.ServerDocument["name"].(string); name != "Printer" {
		t.Fatalf("server document mismatch: %+v", result.ServerDocument)
	}

	var stored model.Product
	db.Where("id = ?", created.ID).First(&stored)
	if stored.Stock != 2 {
		t.Fatalf("conflicting write must not change the server, stock %d", stored.Stock)
	}
}

func TestUploadUpdateWithoutBaseAlwaysApplies(t *testing.T) {
	e, db := newTestEngine(t)
	tid := uuid.NewString()

	created := uploadOne(t, e, &tid, "products", Change{
		Action: ActionCreate,
		Data:   map[string]interface{}{"name": "Scanner", "stock": 1},
	})

	// No baseUpdatedAt: the client has no opinion, last write wins
	result := uploadOne(t, e, &tid, "products", Change{
		ID:     created.ID,
		Action: ActionUpdate,
		Data:   map[string]interface{}{"stock": 4},
	})
	if result.Status != StatusApplied {
		t.Fatalf("expected applied, got %q", result.Status)
	}

	var stored model.Product
	db.Where("id = ?", created.ID).First(&stored)
	if stored.Stock != 4 {
		t.Fatalf("update not applied, stock %d", stored.Stock)
	}
}

func TestUploadUpdateMissingAndInvalidID(t *testing.T) {
	e, _ := newTestEngine(t)
	tid := uuid.NewString()

	missing := uploadOne(t, e, &tid, "products", Change{
		Action: ActionUpdate,
		Data:   map[string]interface{}{"stock": 1},
	})
	if missing.Status != StatusNotFound || missing.Message != "Missing document ID for update/delete" {
		t.Fatalf("unexpected result for missing id: %+v", missing)
	}

	invalid := uploadOne(t, e, &tid, "products", Change{
		ID:     "not-a-uuid",
		Action: ActionUpdate,
		Data:   map[string]interface{}{"stock": 1},
	})
	if invalid.Status != StatusNotFound || invalid.Message != "Invalid document ID" {
		t.Fatalf("unexpected result for invalid id: %+v", invalid)
	}
}

func TestUploadTenantIsolation(t *testing.T) {
	e, _ := newTestEngine(t)
	tenantA := uuid.NewString()
	tenantB := uuid.NewString()

	created := uploadOne(t, e, &tenantA, "products", Change{
		Action: ActionCreate,
		Data:   map[string]interface{}{"name": "Private"},
	})

	// Another tenant cannot see or touch the document
	result := uploadOne(t, e, &tenantB, "products", Change{
		ID:     created.ID,
		Action: ActionUpdate,
		Data:   map[string]interface{}{"name": "Hijacked"},
	})
	if result.Status != StatusNotFound {
		t.Fatalf("cross-tenant update must be not_found, got %q", result.Status)
	}

	del := uploadOne(t, e, &tenantB, "products", Change{
		ID:     created.ID,
		Action: ActionDelete,
	})
	if del.Status != StatusNotFound {
		t.Fatalf("cross-tenant delete must be not_found, got %q", del.Status)
	}
}

func TestUploadDelete(t *testing.T) {
	e, db := newTestEngine(t)
	tid := uuid.NewString()

	created := uploadOne(t, e, &tid, "products", Change{
		Action: ActionCreate,
		Data:   map[string]interface{}{"name": "Ephemeral"},
	})

	result := uploadOne(t, e, &tid, "products", Change{
		ID:     created.ID,
		Action: ActionDelete,
	})
	if result.Status != StatusApplied {
		t.Fatalf("expected applied, got %q (%s)", result.Status, result.Message)
	}

	var count int64
	db.Model(&model.Product{}).Where("id = ?", created.ID).Count(&count)
	if count != 0 {
		t.Fatal("document should be gone")
	}

	// Deleting again reports not_found rather than erroring
	again := uploadOne(t, e, &tid, "products", Change{ID: created.ID, Action: ActionDelete})
	if again.Status != StatusNotFound {
		t.Fatalf("expected not_found on repeat delete, got %q", again.Status)
	}
}

func TestUploadInvalidCollection(t *testing.T) {
	e, _ := newTestEngine(t)
	tid := uuid.NewString()

	resp := e.Upload(&tid, UploadRequest{
		Collections: []CollectionUpload{{
			Name:    "secrets",
			Changes: []Change{{Action: ActionCreate, Data: map[string]interface{}{"x": 1}}},
		}},
	})
	result := singleResult(t, resp)
	if result.Status != StatusError {
		t.Fatalf("expected error for disallowed collection, got %q", result.Status)
	}
}

func TestUploadUnknownAction(t *testing.T) {
	e, _ := newTestEngine(t)
	tid := uuid.NewString()

	result := uploadOne(t, e, &tid, "products", Change{
		Action: "upsert",
		Data:   map[string]interface{}{"name": "X"},
	})
	if result.Status != StatusError {
		t.Fatalf("expected error for unknown action, got %q", result.Status)
	}
}

func TestUploadOneFailureDoesNotBlockSiblings(t *testing.T) {
	e, _ := newTestEngine(t)
	tid := uuid.NewString()

	resp := e.Upload(&tid, UploadRequest{
		Collections: []CollectionUpload{{
			Name: "products",
			Changes: []Change{
				{Action: ActionUpdate, ID: uuid.NewString(), Data: map[string]interface{}{"stock": 1}},
				{Action: ActionCreate, Data: map[string]interface{}{"name": "Survivor"}},
			},
		}},
	})
	results := resp.Collections[0].Results
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusNotFound {
		t.Fatalf("first change should be not_found, got %q", results[0].Status)
	}
	if results[1].Status != StatusApplied {
		t.Fatalf("second change should still apply, got %q", results[1].Status)
	}
}

func TestDownloadSinceWatermark(t *testing.T) {
	e, _ := newTestEngine(t)
	tid := uuid.NewString()

	uploadOne(t, e, &tid, "customers", Change{
		Action: ActionCreate,
		Data:   map[string]interface{}{"name": "Early Bird"},
	})

	cutoff := time.Now().UTC()
	time.Sleep(5 * time.Millisecond)

	uploadOne(t, e, &tid, "customers", Change{
		Action: ActionCreate,
		Data:   map[string]interface{}{"name": "Late Arrival"},
	})

	resp := e.Download(&tid, DownloadRequest{
		Collections: []CollectionDownloadRequest{{Name: "customers", Since: &cutoff}},
	})
	if len(resp.Collections) != 1 {
		t.Fatalf("expected one collection, got %d", len(resp.Collections))
	}
	items := resp.Collections[0].Items
	if len(items) != 1 {
		t.Fatalf("expected only the post-cutoff document, got %d", len(items))
	}
	if name, _ := items[0]["name"].(string); name != "Late Arrival" {
		t.Fatalf("wrong document: %+v", items[0])
	}

	// No watermark returns everything
	full := e.Download(&tid, DownloadRequest{
		Collections: []CollectionDownloadRequest{{Name: "customers"}},
	})
	if len(full.Collections[0].Items) != 2 {
		t.Fatalf("expected full download of 2, got %d", len(full.Collections[0].Items))
	}
}

func TestDownloadTenantScoped(t *testing.T) {
	e, _ := newTestEngine(t)
	tenantA := uuid.NewString()
	tenantB := uuid.NewString()

	uploadOne(t, e, &tenantA, "customers", Change{
		Action: ActionCreate, Data: map[string]interface{}{"name": "A Co"},
	})
	uploadOne(t, e, &tenantB, "customers", Change{
		Action: ActionCreate, Data: map[string]interface{}{"name": "B Co"},
	})

	resp := e.Download(&tenantA, DownloadRequest{
		Collections: []CollectionDownloadRequest{{Name: "customers"}},
	})
	items := resp.Collections[0].Items
	if len(items) != 1 {
		t.Fatalf("expected tenant A to see 1 document, got %d", len(items))
	}
	if name, _ := items[0]["name"].(string); name != "A Co" {
		t.Fatalf("tenant A saw the wrong document: %+v", items[0])
	}
}

func TestDownloadInvalidCollectionYieldsEmptyResult(t *testing.T) {
	e, _ := newTestEngine(t)
	tid := uuid.NewString()

	resp := e.Download(&tid, DownloadRequest{
		Collections: []CollectionDownloadRequest{{Name: "secrets"}},
	})
	if len(resp.Collections) != 1 {
		t.Fatalf("expected one collection result, got %d", len(resp.Collections))
	}
	if len(resp.Collections[0].Items) != 0 {
		t.Fatal("invalid collection must yield an empty item list")
	}
}

func TestJSONColumnRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	tid := uuid.NewString()

	items := []interface{}{
		map[string]interface{}{"product_name": "Widget", "quantity": 2.0, "price": 10.0, "total": 20.0},
	}
	created := uploadOne(t, e, &tid, "invoices", Change{
		Action: ActionCreate,
		Data: map[string]interface{}{
			"invoice_number": "INV-000001",
			"items":          items,
			"total":          20.0,
			"status":         "unpaid",
		},
	})
	if created.Status != StatusApplied {
		t.Fatalf("create failed: %s", created.Message)
	}

	resp := e.Download(&tid, DownloadRequest{
		Collections: []CollectionDownloadRequest{{Name: "invoices"}},
	})
	docs := resp.Collections[0].Items
	if len(docs) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(docs))
	}
	decoded, ok := docs[0]["items"].([]interface{})
	if !ok {
		t.Fatalf("items should decode back to a list, got %T", docs[0]["items"])
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 line, got %d", len(decoded))
	}
	line, _ := decoded[0].(map[string]interface{})
	if line["product_name"] != "Widget" {
		t.Fatalf("line round trip failed: %+v", line)
	}
}

func TestCollectionsListsUsersWithoutPasswordColumn(t *testing.T) {
	names := Collections()
	found := false
	for _, n := range names {
		if n == "users" {
			found = true
		}
	}
	if !found {
		t.Fatal("users must be a syncable collection")
	}
	if registry["users"].columns["password_hash"] {
		t.Fatal("password_hash must never be syncable")
	}
}
