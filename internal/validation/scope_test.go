package validation

import (
	"reflect"
	"testing"
)

func TestValidScopeName_Valid(t *testing.T) {
	valids := []string{
		"a",
		"ab",
		"openid",
		"profile:read",
		"email:read:e2e123",
		"a_b-c.d:scope2",
	}
	for _, v := range valids {
		if !ValidScopeName(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidScopeName_Invalid(t *testing.T) {
	invalids := []string{
		"",
		":lead",
		"trail:",
		"bad space",
		"UPPER",
		"semicolon;hack",
	}
	for _, v := range invalids {
		if ValidScopeName(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestParseScopes(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", []string{"openid"}},
		{"   ", []string{"openid"}},
		{"openid profile", []string{"openid", "profile"}},
		{"openid  profile  openid", []string{"openid", "profile"}},
		{"profile", []string{"profile"}},
	}
	for _, c := range cases {
		if got := ParseScopes(c.raw); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("ParseScopes(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestHasScope(t *testing.T) {
	scopes := "openid profile email"
	if !HasScope(scopes, "profile") {
		t.Fatal("expected profile present")
	}
	if HasScope(scopes, "roles") {
		t.Fatal("roles should be absent")
	}
	if HasScope(scopes, "prof") {
		t.Fatal("substring must not match")
	}
	if HasScope("", "openid") {
		t.Fatal("empty scope string matched")
	}
}
