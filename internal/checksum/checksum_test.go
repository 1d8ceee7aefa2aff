package checksum

import "testing"

func TestSum(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestMatches(t *testing.T) {
	sum := Sum([]byte("plan"))
	if !Matches([]byte("plan"), sum) {
		t.Error("unchanged data should match")
	}
	if Matches([]byte("plan, edited"), sum) {
		t.Error("edited data should not match")
	}
	if Matches([]byte(""), "") {
		t.Error("an empty recorded checksum never matches")
	}
}
