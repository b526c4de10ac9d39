package theme

import (
	"testing"

	"github.com/muesli/termenv"
)

func TestForName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"dark", "dark"},
		{"Mocha", "dark"},
		{"light", "light"},
		{"latte", "light"},
		{"mono", "mono"},
		{"none", "mono"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ForName(tt.name)
			if err != nil {
				t.Fatalf("ForName(%q): %v", tt.name, err)
			}
			if got.Name != tt.want {
				t.Errorf("ForName(%q).Name = %q, want %q", tt.name, got.Name, tt.want)
			}
		})
	}

	if _, err := ForName("neon"); err == nil {
		t.Error("ForName(neon) should fail")
	}
}

func TestDetect(t *testing.T) {
	if got := Detect(termenv.Ascii, true); got.Name != "mono" {
		t.Errorf("ascii profile = %q, want mono", got.Name)
	}
	if got := Detect(termenv.TrueColor, true); got.Name != "dark" {
		t.Errorf("dark background = %q", got.Name)
	}
	if got := Detect(termenv.ANSI256, false); got.Name != "light" {
		t.Errorf("light background = %q", got.Name)
	}
}

func TestPalettesAreComplete(t *testing.T) {
	for _, th := range []Theme{Mocha, Latte} {
		colors := map[string]string{
			"Base": string(th.Base), "Surface0": string(th.Surface0), "Surface1": string(th.Surface1),
			"Text": string(th.Text), "Subtext": string(th.Subtext), "Overlay": string(th.Overlay),
			"Primary": string(th.Primary), "Lavender": string(th.Lavender), "Red": string(th.Red),
			"Green": string(th.Green), "Yellow": string(th.Yellow), "Error": string(th.Error),
		}
		for field, c := range colors {
			if c == "" {
				t.Errorf("%s.%s is empty", th.Name, field)
			}
		}
		if th.IsMono() {
			t.Errorf("%s reports mono", th.Name)
		}
		if len(th.TaskColors()) < 4 {
			t.Errorf("%s has too few task colors", th.Name)
		}
	}
	if !Mono.IsMono() {
		t.Error("Mono.IsMono() = false")
	}
}

func TestSetCurrent(t *testing.T) {
	if err := SetCurrent("light"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if Current().Name != "light" {
		t.Errorf("Current() = %q", Current().Name)
	}
	if err := SetCurrent("dark"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if Current().Name != "dark" {
		t.Errorf("Current() = %q", Current().Name)
	}
	if err := SetCurrent("bogus"); err == nil {
		t.Error("SetCurrent(bogus) should fail")
	}
	if Current().Name != "dark" {
		t.Error("a failed SetCurrent must keep the previous theme")
	}
}
