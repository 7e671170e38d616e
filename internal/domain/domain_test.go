package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"ambassador", RoleAmbassador},
		{"user", RoleAmbassador},
		{"superuser", RoleUnset},
		{"", RoleUnset},
	}
	for _, tc := range cases {
		if got := ParseRole(tc.in); got != tc.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDedupeBanksKeepsFirstOccurrence(t *testing.T) {
	in := []Bank{
		{Code: "058", Name: "GTBank"},
		{Code: "044", Name: "Access"},
		{Code: "058", Name: "GTBank later"},
		{Code: "044", Name: "Access later"},
		{Code: "011", Name: "First Bank"},
	}
	got := DedupeBanks(in)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []Bank{
		{Code: "058", Name: "GTBank"},
		{Code: "044", Name: "Access"},
		{Code: "011", Name: "First Bank"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPatchApplyMergesOnlySetFields(t *testing.T) {
	first := "Adeline"
	amount := 2500.0
	patch := &AmbassadorPatch{FirstName: &first, TotalAmount: &amount}

	a := Ambassador{
		ID:        "amb-1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@helicode.io",
	}
	patch.Apply(&a)

	if a.FirstName != "Adeline" {
		t.Errorf("firstName = %q", a.FirstName)
	}
	if a.TotalAmount != 2500 {
		t.Errorf("totalAmount = %v", a.TotalAmount)
	}
	if a.LastName != "Lovelace" || a.Email != "ada@helicode.io" {
		t.Errorf("unset fields clobbered: %+v", a)
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api with message", &ErrAPI{StatusCode: 409, Message: "Email already invited"}, "Email already invited"},
		{"transport", &ErrTransport{Err: errors.New("dial tcp: timeout")}, "Something went wrong. Please check your connection and try again."},
		{"validation", &ErrValidation{Field: "email", Message: "Invalid email"}, "Invalid email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorMessage(tc.err); got != tc.want {
				t.Errorf("ErrorMessage = %q, want %q", got, tc.want)
			}
		})
	}
}
