package logger

import "testing"

func TestSanitizeValueRedactsSecrets(t *testing.T) {
	if got := sanitizeValue("jwt_secret_key", "abc"); got != "[REDACTED]" {
		t.Fatalf("secret: want redacted got=%v", got)
	}
	if got := sanitizeValue("authorization", "Bearer x"); got != "[REDACTED]" {
		t.Fatalf("authorization: want redacted got=%v", got)
	}
	if got := sanitizeValue("course_id", "c1"); got != "c1" {
		t.Fatalf("course_id: want passthrough got=%v", got)
	}
}

func TestSanitizeValueHashesUserIDs(t *testing.T) {
	a := sanitizeValue("user_id", "11111111-1111-1111-1111-111111111111")
	b := sanitizeValue("user_id", "11111111-1111-1111-1111-111111111111")
	s, ok := a.(string)
	if !ok || len(s) != len("hash:")+12 {
		t.Fatalf("unexpected hash %v", a)
	}
	if a != b {
		t.Fatalf("hash must be stable: %v vs %v", a, b)
	}
	if got := sanitizeValue("instructor_user_id", "x"); got == "x" {
		t.Fatalf("suffix _user_id should hash")
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected kvs: %v", out)
	}
}
