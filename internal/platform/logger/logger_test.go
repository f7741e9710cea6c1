package logger

import "testing"

func TestSanitizeValueRedactsSecrets(t *testing.T) {
	cases := map[string]interface{}{
		"password":      "hunter2",
		"refresh_token": "abc",
		"join_code":     "QX7P2K",
	}
	for key, val := range cases {
		if got := sanitizeValue(key, val); got != "[REDACTED]" {
			t.Fatalf("%s: want=[REDACTED] got=%v", key, got)
		}
	}
}

func TestSanitizeValueHashesEmail(t *testing.T) {
	got, ok := sanitizeValue("email", "ada@example.com").(string)
	if !ok || len(got) != len("hash:")+12 {
		t.Fatalf("email hash: got=%v", got)
	}
	if again := sanitizeValue("email", "ada@example.com"); again != got {
		t.Fatalf("hash must be stable: %v vs %v", got, again)
	}
}

func TestSanitizeValueKeepsPlainFields(t *testing.T) {
	if got := sanitizeValue("xp", 120); got != 120 {
		t.Fatalf("xp: want=120 got=%v", got)
	}
}

func TestNewTestModeIsNop(t *testing.T) {
	log, err := New("test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("discarded", "k", "v")
	log.With("service", "x").Debug("discarded")
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"password", "x", "user_id"})
	if len(out) != 3 || out[1] != redacted || out[2] != "user_id" {
		t.Fatalf("sanitizeKVs = %v", out)
	}
}

func TestSanitizeValueRedactsNestedAndJWT(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	got := sanitizeValue("payload", map[string]interface{}{"Token": "abc", "note": jwt, "xp": 5}).(map[string]interface{})
	if got["Token"] != redacted || got["note"] != redacted || got["xp"] != 5 {
		t.Fatalf("nested = %v", got)
	}
}
