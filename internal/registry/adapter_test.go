package registry

import (
	"errors"
	"strings"
	"testing"

	xerrors "xtags/internal/errors"
)

func TestApplyKindsOptionRoles(t *testing.T) {
	tests := []struct {
		name          string
		clause        string
		wantRefOnly   bool
		wantRoleCount int
		wantRoleName  string
	}{
		{"definition role", "fn:f:d", false, 0, ""},
		{"reference role", "call:c:r", true, 1, "reference"},
		{"other role", "sym:s:o", true, 1, "other"},
		{"unknown role", "odd:x:q", true, 0, ""},
		{"empty role field", "thing:t:", true, 0, ""},
		{"role omitted", "bare:b", true, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New()
			rules := NewFormatRules()
			if err := ApplyKindsOption(reg, rules, tt.clause); err != nil {
				t.Fatalf("ApplyKindsOption(%q) error: %v", tt.clause, err)
			}

			kindName := tt.clause
			if i := strings.IndexByte(kindName, ':'); i >= 0 {
				kindName = kindName[:i]
			}
			k, ok := reg.LookupByName(kindName)
			if !ok {
				t.Fatalf("kind %q not registered", kindName)
			}
			if k.ReferenceOnly != tt.wantRefOnly {
				t.Errorf("ReferenceOnly = %v, want %v", k.ReferenceOnly, tt.wantRefOnly)
			}
			if k.RoleCount() != tt.wantRoleCount {
				t.Errorf("RoleCount = %d, want %d", k.RoleCount(), tt.wantRoleCount)
			}
			if tt.wantRoleCount > 0 {
				if k.Roles[0].Name != tt.wantRoleName {
					t.Errorf("role name = %q, want %q", k.Roles[0].Name, tt.wantRoleName)
				}
				if !k.RoleEnabled(0) {
					t.Error("role should be enabled by default")
				}
			}
		})
	}
}

func TestApplyKindsOptionMultipleClauses(t *testing.T) {
	reg := New()
	rules := NewFormatRules()

	err := ApplyKindsOption(reg, rules, "fn:f:d:F.:%N,call:c:r:C.,var:v:d")
	if err != nil {
		t.Fatalf("ApplyKindsOption error: %v", err)
	}

	if reg.Len() != 3 {
		t.Fatalf("Len = %d, want 3", reg.Len())
	}

	fn, _ := reg.LookupByName("fn")
	if fn.Letter != 'f' {
		t.Errorf("fn letter = %q, want 'f'", fn.Letter)
	}
	rule := rules.Lookup("fn")
	if rule.Prefix != "F." || rule.Summary != "%N" {
		t.Errorf("fn rule = %+v, want prefix F. summary %%N", rule)
	}

	rule = rules.Lookup("call")
	if rule.Prefix != "C." || rule.Summary != "" {
		t.Errorf("call rule = %+v, want prefix C. and no summary", rule)
	}

	rule = rules.Lookup("var")
	if rule.Prefix != "" || rule.Summary != "" {
		t.Errorf("var rule = %+v, want zero value", rule)
	}
}

func TestApplyKindsOptionSummaryKeepsColons(t *testing.T) {
	reg := New()
	rules := NewFormatRules()

	if err := ApplyKindsOption(reg, rules, "fn:f:d:F.:%N:%n"); err != nil {
		t.Fatalf("ApplyKindsOption error: %v", err)
	}

	rule := rules.Lookup("fn")
	if rule.Summary != "%N:%n" {
		t.Errorf("Summary = %q, want %q", rule.Summary, "%N:%n")
	}
}

func TestApplyKindsOptionMergesRules(t *testing.T) {
	reg := New()
	rules := NewFormatRules()

	// First invocation sets the prefix, a later one adds the summary.
	if err := ApplyKindsOption(reg, rules, "fn:f:d:F."); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := ApplyKindsOption(reg, rules, "fn:f:d::%C %N"); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	rule := rules.Lookup("fn")
	if rule.Prefix != "F." {
		t.Errorf("Prefix = %q, want %q (empty field must not clobber)", rule.Prefix, "F.")
	}
	if rule.Summary != "%C %N" {
		t.Errorf("Summary = %q, want %q", rule.Summary, "%C %N")
	}

	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1 (redefinition replaces in place)", reg.Len())
	}
}

func TestApplyKindsOptionErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
		code  xerrors.ErrorCode
	}{
		{"empty name", ":f:d", xerrors.KindsInvalid},
		{"missing letter", "fn", xerrors.KindsInvalid},
		{"empty letter", "fn::d", xerrors.KindsInvalid},
		{"error in later clause", "fn:f:d,", xerrors.KindsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ApplyKindsOption(New(), NewFormatRules(), tt.value)
			if err == nil {
				t.Fatalf("ApplyKindsOption(%q) = nil, want error", tt.value)
			}
			var xe *xerrors.XtagsError
			if !errors.As(err, &xe) {
				t.Fatalf("error is not an XtagsError: %v", err)
			}
			if xe.Code != tt.code {
				t.Errorf("Code = %v, want %v", xe.Code, tt.code)
			}
		})
	}
}

func TestApplyKindDefs(t *testing.T) {
	reg := New()
	rules := NewFormatRules()

	defs := []KindDef{
		{Name: "fn", Letter: "f", Role: "d", Prefix: "F."},
		{Name: "call", Letter: "c", Role: "r"},
	}
	if err := ApplyKindDefs(reg, rules, defs); err != nil {
		t.Fatalf("ApplyKindDefs error: %v", err)
	}

	fn, ok := reg.LookupByName("fn")
	if !ok || fn.ReferenceOnly {
		t.Errorf("fn should be a definition kind, got %+v", fn)
	}
	call, ok := reg.LookupByName("call")
	if !ok || call.RoleCount() != 1 {
		t.Errorf("call should have one role, got %+v", call)
	}
	if rules.Lookup("fn").Prefix != "F." {
		t.Errorf("fn prefix not recorded")
	}

	err := ApplyKindDefs(reg, rules, []KindDef{{Name: "x"}})
	if err == nil {
		t.Error("definition without letter should fail")
	}
}

func TestRoleTablesNotShared(t *testing.T) {
	reg := New()
	rules := NewFormatRules()
	if err := ApplyKindsOption(reg, rules, "a:a:r,b:b:r"); err != nil {
		t.Fatalf("ApplyKindsOption error: %v", err)
	}

	if !reg.SetRoleEnabled("a", "reference", false) {
		t.Fatal("SetRoleEnabled should find the role")
	}

	a, _ := reg.LookupByName("a")
	b, _ := reg.LookupByName("b")
	if a.RoleEnabled(0) {
		t.Error("role on a should be disabled")
	}
	if !b.RoleEnabled(0) {
		t.Error("disabling a's role must not affect b")
	}
}
