package rbac

import "testing"

func TestNormalizeAliases(t *testing.T) {
	if got := Normalize("admin"); got != RoleTenantAdmin {
		t.Fatalf("admin should normalize to tenant_admin, got %q", got)
	}
	if got := Normalize("manager"); got != RoleInventoryManager {
		t.Fatalf("manager should normalize to inventory_manager, got %q", got)
	}
	if got := Normalize(RoleCashier); got != RoleCashier {
		t.Fatalf("cashier should be unchanged, got %q", got)
	}
}

func TestIsKnown(t *testing.T) {
	for _, role := range []string{RoleSuperAdmin, RoleTenantAdmin, "admin", "manager", RoleViewer} {
		if !IsKnown(role) {
			t.Fatalf("expected %q to be known", role)
		}
	}
	if IsKnown("intern") {
		t.Fatal("expected unknown role to be rejected")
	}
}

func TestPermissionsForRoleReturnsCopy(t *testing.T) {
	perms := PermissionsForRole(RoleCashier)
	perms["accounting"] = true
	if PermissionsForRole(RoleCashier)["accounting"] {
		t.Fatal("mutating the returned map must not change the preset")
	}
}

func TestPermissionsForUnknownRoleFallsBackToWorker(t *testing.T) {
	perms := PermissionsForRole("intern")
	if !perms["pos"] || perms["users"] {
		t.Fatalf("expected worker preset for unknown role, got %v", perms)
	}
}

func TestTenantAdminHasAllPermissions(t *testing.T) {
	perms := PermissionsForRole(RoleTenantAdmin)
	for _, key := range PermissionKeys {
		if !perms[key] {
			t.Fatalf("tenant_admin missing permission %q", key)
		}
	}
}

func TestHasPermissionSuperAdminAlwaysPasses(t *testing.T) {
	if !HasPermission(RoleSuperAdmin, nil, "accounting") {
		t.Fatal("super_admin must pass every permission check")
	}
	if !HasPermission(RoleSuperAdmin, map[string]bool{"accounting": false}, "accounting") {
		t.Fatal("super_admin must pass even with an explicit deny")
	}
}

func TestHasPermissionExplicitMapReplacesPreset(t *testing.T) {
	// The cashier preset grants pos, but an explicit map that omits it wins
	explicit := map[string]bool{"dashboard": true}
	if HasPermission(RoleCashier, explicit, "pos") {
		t.Fatal("explicit map should fully replace the role preset")
	}
	if !HasPermission(RoleCashier, explicit, "dashboard") {
		t.Fatal("explicitly granted permission should pass")
	}

	// And an explicit map can grant beyond the preset
	if !HasPermission(RoleWorker, map[string]bool{"accounting": true}, "accounting") {
		t.Fatal("explicit grant beyond preset should pass")
	}
}

func TestHasPermissionPresetFallback(t *testing.T) {
	if !HasPermission(RoleCashier, nil, "pos") {
		t.Fatal("cashier preset grants pos")
	}
	if HasPermission(RoleCashier, nil, "accounting") {
		t.Fatal("cashier preset does not grant accounting")
	}
}
