package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestETagRoundTrip(t *testing.T) {
	sum := Sum([]byte("# MOC\n"))
	for _, header := range []string{ETag(sum), sum, "W/" + ETag(sum), " " + ETag(sum) + " "} {
		if got := FromETag(header); got != sum {
			t.Errorf("FromETag(%q) = %q, want %q", header, got, sum)
		}
	}
	if got := FromETag(""); got != "" {
		t.Errorf("FromETag(\"\") = %q, want empty", got)
	}
}
