package domain

import "testing"

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"resident": RoleResident,
		"Staff":    RoleStaff,
		"3":        RoleManager,
		" admin ":  RoleAdmin,
	}
	for in, want := range cases {
		got, ok := ParseRole(in)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q) = %v, %v", in, got, ok)
		}
	}
	for _, bad := range []string{"", "0", "5", "root"} {
		if _, ok := ParseRole(bad); ok {
			t.Fatalf("ParseRole(%q) should fail", bad)
		}
	}
}

func TestRolesAscending(t *testing.T) {
	roles := Roles()
	for i := 1; i < len(roles); i++ {
		if roles[i] <= roles[i-1] {
			t.Fatalf("roles not ascending: %v", roles)
		}
	}
	if RoleAdmin.String() != "admin" || Role(7).String() != "" {
		t.Fatal("unexpected role names")
	}
}
