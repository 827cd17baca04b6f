package linebuf

import (
	"io"
	"strings"
	"testing"
)

func TestReadLineCRLF(t *testing.T) {
	r := New(strings.NewReader("abc\r\ndef\n"))

	l, err := r.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if string(l.Text) != "abc" || !l.HadCR {
		t.Fatalf("got %q hadCR=%v", l.Text, l.HadCR)
	}

	l, err = r.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if string(l.Text) != "def" || l.HadCR {
		t.Fatalf("got %q hadCR=%v", l.Text, l.HadCR)
	}

	_, err = r.ReadLine()
	if err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReadLineOverflow(t *testing.T) {
	long := strings.Repeat("x", 500)
	r := New(strings.NewReader(long + "\nshort\n"))

	l, err := r.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if string(l.Text) != long {
		t.Fatalf("overflowed line corrupted: len=%d", len(l.Text))
	}

	l, err = r.ReadLine()
	if err != nil || string(l.Text) != "short" {
		t.Fatalf("got %q err=%v", l.Text, err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
	}{
		{"   ", KindEmpty},
		{"$ a comment", KindComment},
		{"*NODE", KindKeyword},
		{"   123, 1.0", KindCard},
	}
	for _, c := range cases {
		kind, _ := Classify([]byte(c.in))
		if kind != c.kind {
			t.Errorf("Classify(%q) = %v want %v", c.in, kind, c.kind)
		}
	}
}

func TestClassifyKeywordName(t *testing.T) {
	_, rest := Classify([]byte("*NODE"))
	if string(rest) != "NODE" {
		t.Fatalf("got %q", rest)
	}
}
