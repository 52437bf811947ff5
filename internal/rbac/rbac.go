package rbac

// Closed set of roles. Role strings coming off the wire are normalized
// through Normalize before any permission lookup.
const (
	RoleSuperAdmin       = "super_admin"
	RoleTenantAdmin      = "tenant_admin"
	RoleManager          = "manager" // legacy alias of inventory_manager
	RoleAccountant       = "accountant"
	RoleInventoryManager = "inventory_manager"
	RoleCashier          = "cashier"
	RoleWorker           = "worker"
	RoleViewer           = "viewer"
)

// Permission keys checked by handlers and rendered by clients
var PermissionKeys = []string{
	"dashboard", "products", "inventory_count", "invoices", "customers",
	"suppliers", "purchases", "pos", "users", "reports", "accounting", "warehouses",
}

var rolePermissions = map[string]map[string]bool{
	RoleTenantAdmin: allPermissions(),
	RoleCashier: {
		"dashboard": true,
		"pos":       true,
		"invoices":  true,
		"customers": true,
	},
	RoleInventoryManager: {
		"dashboard":       true,
		"products":        true,
		"warehouses":      true,
		"inventory_count": true,
		"purchases":       true,
		"suppliers":       true,
	},
	RoleAccountant: {
		"dashboard":  true,
		"invoices":   true,
		"reports":    true,
		"accounting": true,
		"customers":  true,
	},
	RoleWorker: {
		"dashboard": true,
		"pos":       true,
	},
	RoleViewer: {
		"dashboard": true,
		"reports":   true,
	},
}

func allPermissions() map[string]bool {
	perms := make(map[string]bool, len(PermissionKeys))
	for _, k := range PermissionKeys {
		perms[k] = true
	}
	return perms
}

// Normalize maps legacy role names onto the closed set
func Normalize(role string) string {
	switch role {
	case "admin":
		return RoleTenantAdmin
	case RoleManager:
		return RoleInventoryManager
	default:
		return role
	}
}

// IsKnown reports whether role is a member of the closed role set
func IsKnown(role string) bool {
	switch Normalize(role) {
	case RoleSuperAdmin, RoleTenantAdmin, RoleAccountant,
		RoleInventoryManager, RoleCashier, RoleWorker, RoleViewer:
		return true
	}
	return false
}

// PermissionsForRole returns a copy of the role's permission preset.
// Unknown roles fall back to the worker preset.
func PermissionsForRole(role string) map[string]bool {
	preset, ok := rolePermissions[Normalize(role)]
	if !ok {
		preset = rolePermissions[RoleWorker]
	}
	perms := make(map[string]bool, len(preset))
	for k, v := range preset {
		perms[k] = v
	}
	return perms
}

// HasPermission resolves the effective permission for one key. An explicit
// per-user permission map, when present, replaces the role preset entirely
// rather than being merged flag by flag. super_admin always passes.
func HasPermission(role string, explicit map[string]bool, key string) bool {
	if Normalize(role) == RoleSuperAdmin {
		return true
	}
	if len(explicit) > 0 {
		return explicit[key]
	}
	return PermissionsForRole(role)[key]
}
