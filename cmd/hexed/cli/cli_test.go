package cli

import (
	"strings"
	"testing"

	"hexed/internal/types"
)

func TestParseEditSpec(t *testing.T) {
	cases := []struct {
		spec string
		pos  types.FilePosition
		data types.Buffer
	}{
		{"0=ff", 0, types.Buffer{0xff}},
		{"16=deadbeef", 16, types.Buffer{0xde, 0xad, 0xbe, 0xef}},
		{"0x10=00ff", 16, types.Buffer{0x00, 0xff}},
		{"5=de ad", 5, types.Buffer{0xde, 0xad}},
	}
	for _, tc := range cases {
		pos, data, err := parseEditSpec(tc.spec)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.spec, err)
		}
		if pos != tc.pos {
			t.Fatalf("parse %q: expected pos %d, got %d", tc.spec, tc.pos, pos)
		}
		if string(data) != string(tc.data) {
			t.Fatalf("parse %q: expected data %v, got %v", tc.spec, tc.data, data)
		}
	}
}

func TestParseEditSpecRejectsGarbage(t *testing.T) {
	for _, spec := range []string{"", "=ff", "10=", "10", "x=ff", "1=f", "1=zz"} {
		if _, _, err := parseEditSpec(spec); err == nil {
			t.Fatalf("expected error for %q", spec)
		}
	}
}

func TestFormatDump(t *testing.T) {
	out := formatDump(0, types.Buffer("Hello\x00World!!"), 8)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "00000000  48 65 6c 6c 6f 00 57 6f ") {
		t.Fatalf("unexpected first row: %q", lines[0])
	}
	if !strings.Contains(lines[0], "|Hello.Wo|") {
		t.Fatalf("expected ascii gutter with dot for NUL: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "00000008") {
		t.Fatalf("second row offset wrong: %q", lines[1])
	}
}

func TestFormatDumpOffsetColumn(t *testing.T) {
	out := formatDump(0x20, types.Buffer{1, 2}, 16)
	if !strings.HasPrefix(out, "00000020  01 02") {
		t.Fatalf("unexpected dump: %q", out)
	}
}
