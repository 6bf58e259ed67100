package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type record struct {
	Brand string `json:"brand" yaml:"brand"`
	Price int    `json:"price" yaml:"price"`
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "jsonl", "yaml"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error: %v", s, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestJSON_SingleRecordIsBareObject(t *testing.T) {
	var buf bytes.Buffer
	enc, err := New(&buf, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(record{Brand: "bmw", Price: 50000}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	var got record
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a bare object: %v\n%s", err, buf.String())
	}
	if got.Brand != "bmw" {
		t.Errorf("brand = %q", got.Brand)
	}
}

func TestJSON_MultipleRecordsAreArray(t *testing.T) {
	var buf bytes.Buffer
	enc, _ := New(&buf, FormatJSON)
	enc.Encode(record{Brand: "bmw"})
	enc.Encode(record{Brand: "audi"})
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	var got []record
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not an array: %v\n%s", err, buf.String())
	}
	if len(got) != 2 {
		t.Errorf("decoded %d records, want 2", len(got))
	}
}

func TestJSONL_OneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	enc, _ := New(&buf, FormatJSONL)
	enc.Encode(record{Brand: "bmw"})
	enc.Encode(record{Brand: "audi"})
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		var got record
		if err := json.Unmarshal([]byte(line), &got); err != nil {
			t.Errorf("line is not valid JSON: %q", line)
		}
	}
}

func TestYAML_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	enc, _ := New(&buf, FormatYAML)
	enc.Encode(record{Brand: "bmw", Price: 50000})
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "brand: bmw") || !strings.Contains(out, "price: 50000") {
		t.Errorf("unexpected YAML output:\n%s", out)
	}
}
