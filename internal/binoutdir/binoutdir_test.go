package binoutdir

import "testing"

func TestInsertAndGetFile(t *testing.T) {
	d := New()
	d.InsertFile([]string{"nodout", "metadata"}, &File{Name: "legend", Type: Int8, PayloadSize: 80})

	f, err := d.GetFile("/nodout/metadata/legend")
	if err != nil {
		t.Fatal(err)
	}
	if f.PayloadSize != 80 {
		t.Fatalf("got %d", f.PayloadSize)
	}
}

func TestFirstWriteWins(t *testing.T) {
	d := New()
	d.InsertFile([]string{"nodout", "metadata"}, &File{Name: "legend", Type: Int8, PayloadSize: 80})
	d.InsertFile([]string{"nodout", "metadata"}, &File{Name: "legend", Type: Int8, PayloadSize: 999})

	f, err := d.GetFile("/nodout/metadata/legend")
	if err != nil {
		t.Fatal(err)
	}
	if f.PayloadSize != 80 {
		t.Fatalf("expected first write to win, got %d", f.PayloadSize)
	}
}

func TestUnknownPath(t *testing.T) {
	d := New()
	if d.VariableExists("/ghost/path") {
		t.Fatal("expected false")
	}
	if _, err := d.GetFile("/ghost/path"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTopLevelChildren(t *testing.T) {
	d := New()
	d.InsertFile([]string{"nodout", "metadata"}, &File{Name: "title"})
	d.InsertFile([]string{"rcforc", "metadata"}, &File{Name: "title"})

	var names []string
	for _, f := range d.Top {
		names = append(names, f.Name)
	}
	if len(names) != 2 || names[0] != "nodout" || names[1] != "rcforc" {
		t.Fatalf("got %v", names)
	}
}

func TestTimestepChildrenOrdering(t *testing.T) {
	d := New()
	d.InsertFolder([]string{"nodout", "x_displacement", "d000003"})
	d.InsertFolder([]string{"nodout", "x_displacement", "d000001"})
	d.InsertFolder([]string{"nodout", "x_displacement", "d000002"})

	parent := d.FindFolder([]string{"nodout", "x_displacement"})
	if parent == nil {
		t.Fatal("parent not found")
	}
	children := parent.TimestepChildren()
	var names []string
	for _, c := range children {
		names = append(names, c.Name)
	}
	want := []string{"d000001", "d000002", "d000003"}
	for i, w := range want {
		if names[i] != w {
			t.Fatalf("got %v want %v", names, want)
		}
	}
}

func TestPathCompatibleFinalElementOnly(t *testing.T) {
	d := New()
	d.InsertFile([]string{"nodout", "d000001"}, &File{Name: "x", Type: Float64})

	// Requesting d000099 at the final folder level should still resolve,
	// since d000001 is the only dNNNNNN folder present.
	f, err := d.GetFile("/nodout/d000099/x")
	if err != nil {
		t.Fatalf("expected path-compatible match, got %v", err)
	}
	if f.Name != "x" {
		t.Fatalf("got %v", f)
	}

	// Intermediate levels use exact name matching: "nodoutX" does not
	// match "nodout".
	if _, err := d.GetFile("/nodoutX/d000001/x"); err == nil {
		t.Fatal("expected intermediate mismatch to fail")
	}
}
