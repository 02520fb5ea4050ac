package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintBanner_PlainArt(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	printBanner(&buf, false)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 banner rows, got %d", len(lines))
	}
	for i, line := range lines {
		if len(line) != len(lines[0]) {
			t.Errorf("row %d is %d wide, want %d", i, len(line), len(lines[0]))
		}
	}
	// The descenders of "p" and "g" sit on the last art row.
	if !strings.HasPrefix(lines[5], ` |_|    |___/`) {
		t.Errorf("unexpected descender row %q", lines[5])
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Fatal("plain banner must not contain ANSI escapes")
	}
}

func TestPrintBanner_ColorResetsEveryRow(t *testing.T) {
	t.Parallel()
	var plain, colored bytes.Buffer
	printBanner(&plain, false)
	printBanner(&colored, true)

	rows := strings.Split(strings.TrimSuffix(colored.String(), "\n"), "\n")
	for i, row := range rows {
		if !strings.HasPrefix(row, "\033[") || !strings.HasSuffix(row, "\033[0m") {
			t.Errorf("row %d is not wrapped in color and reset: %q", i, row)
		}
	}
	if !strings.Contains(colored.String(), "\033[1;95m") {
		t.Error("expected the bright magenta row of the gradient")
	}

	stripped := colored.String()
	for _, code := range []string{"\033[1;36m", "\033[1;96m", "\033[1;34m", "\033[1;35m", "\033[1;95m", "\033[0m"} {
		stripped = strings.ReplaceAll(stripped, code, "")
	}
	if stripped != plain.String() {
		t.Fatalf("colored banner differs from plain art once escapes are removed")
	}
}
