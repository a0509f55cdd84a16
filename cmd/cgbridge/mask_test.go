package main

import "testing"

func TestShiftMask(t *testing.T) {
	cases := []struct {
		ty     string
		invert bool
		want   string
	}{
		{"i8", false, "7"},
		{"u64", false, "63"},
		{"i128", false, "127"},
		{"<4 x i32>", false, "<31, 31, 31, 31>"},
		{"i8", true, "-8"},
		{"u8", true, "-8"},
		{"<2 x u16>", true, "<-16, -16>"},
	}
	for _, tc := range cases {
		got, err := shiftMask(tc.ty, tc.invert)
		if err != nil {
			t.Fatalf("%s: %v", tc.ty, err)
		}
		if got != tc.want {
			t.Fatalf("mask(%s, invert=%v) = %s, want %s", tc.ty, tc.invert, got, tc.want)
		}
	}
}

func TestShiftMaskRejectsNonIntegers(t *testing.T) {
	for _, ty := range []string{"f64", "bool", "box<i32>", "<4 x f32>", "nonsense<"} {
		if _, err := shiftMask(ty, false); err == nil {
			t.Fatalf("%s: want an error", ty)
		}
	}
}

func TestReadSwitch(t *testing.T) {
	for value, want := range map[string]switchMode{"": switchAuto, "AUTO": switchAuto, " on ": switchOn, "off": switchOff} {
		got, err := readSwitch("ui", value)
		if err != nil || got != want {
			t.Fatalf("readSwitch(%q) = %q, %v", value, got, err)
		}
	}
	if _, err := readSwitch("color", "always"); err == nil {
		t.Fatalf("want an error for an unknown value")
	}
	if !switchOn.enabled(nil) || switchOff.enabled(nil) {
		t.Fatalf("on/off must not consult the terminal")
	}
}
