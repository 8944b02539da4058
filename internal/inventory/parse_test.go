package inventory

import "testing"

func TestParseTable(t *testing.T) {
	out := `  LV::VG::LSize
  web01::vg_guests::50.00g
  db01::vg_guests::50.00g
`
	rows, err := parseTable(out)
	if err != nil {
		t.Fatalf("parseTable() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0]["LV"] != "web01" {
		t.Errorf("rows[0][LV] = %q, want %q", rows[0]["LV"], "web01")
	}
	if rows[1]["LSize"] != "50.00g" {
		t.Errorf("rows[1][LSize] = %q, want %q", rows[1]["LSize"], "50.00g")
	}
}

func TestParseTableHeaderOnly(t *testing.T) {
	rows, err := parseTable("  VG::VSize::VFree\n")
	if err != nil {
		t.Fatalf("parseTable() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestParseTableEmpty(t *testing.T) {
	if _, err := parseTable(""); err == nil {
		t.Error("parseTable(\"\") error = nil, want error")
	}
}

func TestParseSizeG(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"50.00g", 50.0, false},
		{"232.00g", 232.0, false},
		{"<931.51g", 931.51, false},
		{"  2.00g ", 2.0, false},
		{"12,25g", 12.25, false},
		{"10.00G", 10.0, false},
		{"", 0, true},
		{"apples", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSizeG(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSizeG(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSizeG(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
