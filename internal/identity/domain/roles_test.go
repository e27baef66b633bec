package domain

import "testing"

func TestParseRoleTagNormalizes(t *testing.T) {
	cases := []struct {
		raw  string
		want RoleTag
	}{
		{"sound_engineer", RoleSoundEngineer},
		{"Sound_Engineer", RoleSoundEngineer},
		{"  creative  ", RoleCreative},
	}
	for _, tc := range cases {
		got, err := ParseRoleTag(tc.raw)
		if err != nil {
			t.Errorf("ParseRoleTag(%q): %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRoleTag(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}

	if _, err := ParseRoleTag("stunt_coordinator"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestPipelineRolesStableAndComplete(t *testing.T) {
	roles := PipelineRoles()
	if len(roles) != 11 {
		t.Fatalf("expected 11 pipeline roles, got %d", len(roles))
	}
	for i := 1; i < len(roles); i++ {
		if roles[i-1] >= roles[i] {
			t.Fatalf("roles not in stable order: %v", roles)
		}
	}
	seen := make(map[RoleTag]bool, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			t.Errorf("pipeline role %s is not valid", r)
		}
		if seen[r] {
			t.Errorf("duplicate pipeline role %s", r)
		}
		seen[r] = true
	}
}

func TestDisplayNameFallsBackToTag(t *testing.T) {
	if DisplayName(RoleArtSet) != "Art & Set" {
		t.Error("known roles must use the curated display name")
	}
	if DisplayName(RoleTag("gaffer")) != "gaffer" {
		t.Error("unknown roles must fall back to the raw tag")
	}
}
