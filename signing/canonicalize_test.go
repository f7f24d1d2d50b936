package signing

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestCanonicalize_SortsKeysByteWise(t *testing.T) {
	// 'Z' (0x5A) < 'a' (0x61) < 'z' (0x7A) < 'é' (0xC3 0xA9): byte order,
	// not locale or case-insensitive order.
	in := map[string]any{
		"z": json.Number("1"),
		"a": json.Number("2"),
		"Z": json.Number("3"),
		"é": json.Number("4"),
	}
	got, err := Canonicalize(in)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	want := `{"Z":3,"a":2,"z":1,"é":4}`
	if string(got) != want {
		t.Fatalf("canonical bytes\n got %s\nwant %s", got, want)
	}
}

func TestCanonicalize_NestedAndArrays(t *testing.T) {
	in := map[string]any{
		"b": []any{json.Number("3"), json.Number("1"), json.Number("2")},
		"a": map[string]any{
			"y": true,
			"x": nil,
		},
	}
	got, err := Canonicalize(in)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	// Array order is data, not presentation: it must be preserved.
	want := `{"a":{"x":null,"y":true},"b":[3,1,2]}`
	if string(got) != want {
		t.Fatalf("canonical bytes\n got %s\nwant %s", got, want)
	}
}

func TestCanonicalize_StringEscaping(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{"quote\"back\\slash", `"quote\"back\\slash"`},
		{"\n\t\r\b\f", `"\n\t\r\b\f"`},
		{"\x01\x1f", `"\u0001\u001f"`},
		// HTML-significant and non-ASCII characters pass through raw.
		{`<&>`, `"<&>"`},
		{"héllo ☺", `"héllo ☺"`},
	}
	for _, tc := range cases {
		got, err := Canonicalize(tc.in)
		if err != nil {
			t.Fatalf("Canonicalize(%q): %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("Canonicalize(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_Numbers(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{json.Number("42"), "42"},
		{json.Number("-7"), "-7"},
		// json.Number keeps the writer's digits verbatim.
		{json.Number("1.50"), "1.50"},
		{json.Number("1e9"), "1e9"},
		{float64(1.5), "1.5"},
		{float64(3), "3"},
		{float64(-0.25), "-0.25"},
		{int(12), "12"},
		{int64(-9001), "-9001"},
		{uint64(18446744073709551615), "18446744073709551615"},
	}
	for _, tc := range cases {
		got, err := Canonicalize(tc.in)
		if err != nil {
			t.Fatalf("Canonicalize(%v): %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("Canonicalize(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_RejectsMalformedNumbers(t *testing.T) {
	for _, lit := range []string{"", "0x12", "NaN", "Infinity", "+1", "1.", ".5", "01", "1e", "1e+", "--1", " 1"} {
		_, err := Canonicalize(map[string]any{"n": json.Number(lit)})
		if !IsKind(err, KindEncoding) {
			t.Fatalf("Canonicalize(json.Number(%q)): got %v, want KindEncoding", lit, err)
		}
	}
}

func TestCanonicalize_AcceptsNumberGrammar(t *testing.T) {
	for _, lit := range []string{"0", "-0", "0.5", "10.25", "2E10", "1e-9", "7e+3"} {
		got, err := Canonicalize(json.Number(lit))
		if err != nil {
			t.Fatalf("Canonicalize(json.Number(%q)): %v", lit, err)
		}
		if string(got) != lit {
			t.Fatalf("Canonicalize(json.Number(%q)) = %s, want the literal verbatim", lit, got)
		}
	}
}

func TestCanonicalize_RejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Canonicalize(map[string]any{"x": f})
		if !IsKind(err, KindEncoding) {
			t.Fatalf("Canonicalize(%v): got %v, want KindEncoding", f, err)
		}
	}
}

func TestCanonicalize_RejectsUnsupportedType(t *testing.T) {
	_, err := Canonicalize(map[string]any{"x": make(chan int)})
	if !IsKind(err, KindEncoding) {
		t.Fatalf("got %v, want KindEncoding", err)
	}
}

func TestCanonicalize_ErrorNamesPath(t *testing.T) {
	_, err := Canonicalize(map[string]any{
		"outer": []any{map[string]any{"inner": math.NaN()}},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	const wantPath = "$.outer[0].inner"
	if got := err.Error(); !strings.Contains(got, wantPath) {
		t.Fatalf("error %q should name path %q", got, wantPath)
	}
}

func TestDecodeSnapshot(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"b":2,"a":1,"signing":{}}`))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if _, ok := snap["a"].(json.Number); !ok {
		t.Fatalf("numbers should decode as json.Number, got %T", snap["a"])
	}
	canon, err := Canonicalize(snap)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if string(canon) != `{"a":1,"b":2,"signing":{}}` {
		t.Fatalf("canonical bytes: %s", canon)
	}
}

func TestDecodeSnapshot_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"invalid", `{"a":`},
		{"trailing", `{"a":1} extra`},
		{"array", `[1,2]`},
		{"scalar", `42`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeSnapshot([]byte(tc.in)); !IsKind(err, KindEncoding) {
				t.Fatalf("got %v, want KindEncoding", err)
			}
		})
	}
}
