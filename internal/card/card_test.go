package card

import "testing"

func TestFixedWidthFields(t *testing.T) {
	// *NODE style: 8-wide id, then 16-wide coordinates.
	id8 := "       1"              // 8 chars
	x16 := "             1.0"      // 16 chars
	y16 := "             2.0"      // 16 chars
	line := id8 + x16 + y16
	c := New(line)
	c.Begin(8)
	id := c.ParseInt()
	if id != 1 {
		t.Fatalf("got %d", id)
	}
	c.Next()
	c.Begin(16)
	x := c.ParseFloat64()
	if x != 1.0 {
		t.Fatalf("got %v", x)
	}
	c.Next()
	y := c.ParseFloat64()
	if y != 2.0 {
		t.Fatalf("got %v", y)
	}
}

func TestParseTypeDisambiguation(t *testing.T) {
	cases := []struct {
		in   string
		want Type
	}{
		{"123", TypeInt},
		{"-123", TypeInt},
		{"+5", TypeInt},
		{"1.5", TypeFloat},
		{"1.5e-3", TypeFloat},
		{".5", TypeFloat},
		{"abc", TypeString},
		{"1.2.3", TypeString},
		{"1e", TypeString},
		{"", TypeString},
	}
	for _, c := range cases {
		got := ParseType(c.in)
		if got != c.want {
			t.Errorf("ParseType(%q) = %v want %v", c.in, got, c.want)
		}
	}
}

func TestParseWholeTrimDifference(t *testing.T) {
	line := "  123  "
	if ParseWholeNoTrim(line) == ParseWhole(line) {
		t.Fatal("expected them to differ")
	}
	if ParseWhole(ParseWholeNoTrim(line)) != ParseWhole(line) {
		t.Fatal("trim should be idempotent post no-trim")
	}
}

func TestDone(t *testing.T) {
	c := New("1234567890")
	c.Begin(10)
	if c.Done() {
		t.Fatal("should not be done yet")
	}
	c.Next()
	if !c.Done() {
		t.Fatal("should be done")
	}
}
