package cache

import "testing"

func TestHashKey_Deterministic(t *testing.T) {
	t.Parallel()

	subject := "auth0|u1"

	if hashKey(subject) != hashKey(subject) {
		t.Error("same input should produce same hash")
	}
}

func TestHashKey_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"subject", "auth0|5f2b"},
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// hashKey uses the first 8 bytes of SHA256, encoded as 16
			// hex chars
			if got := hashKey(tt.input); len(got) != 16 {
				t.Errorf("hashKey(%q) length = %d, want 16", tt.input, len(got))
			}
		})
	}
}

func TestHashKey_Distinct(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"auth0|u1", "auth0|u2"},
		{"10.0.0.1", "10.0.0.2"},
		{"127.0.0.1", "::1"},
	}

	for _, p := range pairs {
		if hashKey(p[0]) == hashKey(p[1]) {
			t.Errorf("hashKey(%q) == hashKey(%q)", p[0], p[1])
		}
	}
}
