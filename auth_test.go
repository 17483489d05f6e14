package main

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  a@B.Com ", "a@b.com"},
		{"MixedCase@Example.ORG", "MixedCase@example.org"},
		{"no-at-sign", "no-at-sign"},
	}
	for _, c := range cases {
		if got := normalizeEmail(c.in); got != c.want {
			t.Errorf("normalizeEmail(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFactoriesRequireAllFields(t *testing.T) {
	// the empty-field check runs before any storage access
	cases := [][5]string{
		{"", "A", "B", "3516618348", "pw"},
		{"a@b.com", "", "B", "3516618348", "pw"},
		{"a@b.com", "A", "", "3516618348", "pw"},
		{"a@b.com", "A", "B", "", "pw"},
		{"a@b.com", "A", "B", "3516618348", ""},
	}
	for _, c := range cases {
		if _, err := CreateClient(c[0], c[1], c[2], c[3], c[4]); err == nil {
			t.Errorf("CreateClient(%q, %q, %q, %q, ...) should fail", c[0], c[1], c[2], c[3])
		}
		if _, err := CreateSuperuser(c[0], c[1], c[2], c[3], c[4]); err == nil {
			t.Errorf("CreateSuperuser(%q, %q, %q, %q, ...) should fail", c[0], c[1], c[2], c[3])
		}
	}
}

func TestPhonePattern(t *testing.T) {
	valid := []string{
		"03543-440903",
		"3516618348",
		"+54 351 555",
		"+5491112345678",
		"(0351) 461-1234",
	}
	for _, p := range valid {
		if !phoneRE.MatchString(p) {
			t.Errorf("expected %q to be a valid phone", p)
		}
	}
	invalid := []string{
		"phone!",
		"12-34a",
		"++54123",
		"12 34 bc",
	}
	for _, p := range invalid {
		if phoneRE.MatchString(p) {
			t.Errorf("expected %q to be rejected", p)
		}
	}
}
