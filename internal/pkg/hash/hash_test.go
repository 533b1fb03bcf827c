package hash

import "testing"

func TestSHA256String(t *testing.T) {
	// Known vector for "abc"
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := SHA256String("abc"); got != want {
		t.Errorf("SHA256String(abc) = %s, want %s", got, want)
	}
}

func TestSHA256Short(t *testing.T) {
	full := SHA256String("abc")
	short := SHA256Short([]byte("abc"), 16)

	if len(short) != 16 {
		t.Errorf("len = %d, want 16", len(short))
	}
	if short != full[:16] {
		t.Errorf("SHA256Short = %s, want prefix %s", short, full[:16])
	}

	// n beyond the digest length returns the full hash
	if got := SHA256Short([]byte("abc"), 1000); got != full {
		t.Errorf("SHA256Short with large n = %s, want %s", got, full)
	}
}

func TestRecordID(t *testing.T) {
	a := RecordID("John@Example.com", "MegaBreach", "jdoe")
	b := RecordID("john@example.com", "megabreach", "JDOE")
	c := RecordID("jane@example.com", "megabreach", "jdoe")

	if a != b {
		t.Error("RecordID should be case-insensitive")
	}
	if a == c {
		t.Error("RecordID should differ for different emails")
	}
	if len(a) != 16 {
		t.Errorf("RecordID length = %d, want 16", len(a))
	}
}

func TestResultID(t *testing.T) {
	a := ResultID("q-1", 0)
	b := ResultID("q-1", 0)
	c := ResultID("q-1", 1)
	d := ResultID("q-2", 0)

	if a != b {
		t.Error("ResultID should be deterministic")
	}
	if a == c || a == d {
		t.Error("ResultID should differ across positions and queries")
	}
}
