package sync

// collection describes one syncable logical collection: the table it maps
// to, whether it is tenant-scoped, and the narrow set of columns a client
// patch may touch. Columns outside the set are dropped, which is also what
// strips client-side bookkeeping fields. jsonColumns holds the subset stored
// as JSON documents; their values are (de)serialized at the boundary.
type collection struct {
	table        string
	tenantScoped bool
	columns      map[string]bool
	jsonColumns  map[string]bool
}

func cols(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// registry is the fixed allow-list of syncable collections. A name outside
// this list fails the whole collection batch on upload and yields an empty
// result on download. password_hash is deliberately absent from the users
// columns: credentials never travel through sync.
var registry = map[string]collection{
	"products": {
		table:        "products",
		tenantScoped: true,
		columns: cols("name", "name_en", "sku", "barcode", "category", "category_en",
			"stock", "cost_price", "sale_price", "reorder_level", "warehouse_id", "is_active"),
	},
	"customers": {
		table:        "customers",
		tenantScoped: true,
		columns:      cols("name", "name_en", "phone", "email", "address", "balance", "type"),
	},
	"suppliers": {
		table:        "suppliers",
		tenantScoped: true,
		columns:      cols("name", "name_en", "phone", "email", "address", "balance", "tax_id"),
	},
	"invoices": {
		table:        "invoices",
		tenantScoped: true,
		columns: cols("invoice_number", "customer_id", "customer_name", "date", "due_date",
			"items", "subtotal", "tax", "discount", "total", "status"),
		jsonColumns: cols("items"),
	},
	"purchases": {
		table:        "purchases",
		tenantScoped: true,
		columns: cols("purchase_number", "supplier_id", "supplier_name", "date",
			"items", "subtotal", "tax", "total", "status", "notes"),
		jsonColumns: cols("items"),
	},
	"warehouses": {
		table:        "warehouses",
		tenantScoped: true,
		columns: cols("name", "name_en", "code", "address", "phone",
			"manager_id", "manager_name", "is_active"),
	},
	"users": {
		table:        "users",
		tenantScoped: true,
		columns: cols("username", "full_name", "full_name_en", "email",
			"role", "permissions", "status"),
		jsonColumns: cols("permissions"),
	},
	"expenses": {
		table:        "expenses",
		tenantScoped: true,
		columns: cols("category", "description", "amount", "date",
			"payment_method", "reference", "notes", "created_by"),
	},
	"accounts": {
		table:        "accounts",
		tenantScoped: true,
		columns:      cols("code", "name", "name_en", "type", "balance", "parent_id", "is_active"),
	},
	"journal_entries": {
		table:        "journal_entries",
		tenantScoped: true,
		columns: cols("entry_number", "date", "description", "lines",
			"reference", "status", "created_by"),
		jsonColumns: cols("lines"),
	},
}

// Collections returns the names of all syncable collections
func Collections() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
