package classify

import (
	"reflect"
	"strings"
	"testing"

	"github.com/logocruncher/logo-cruncher/internal/models"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"a.jpg", true},
		{"a.JPEG", true},
		{"/x/y/logo.Png", true},
		{"anim.gif", true},
		{"photo.webp", true},
		{"vector.SVG", true},
		{"notes.txt", false},
		{"archive.png.zip", false},
		{"png", false},
		{".png", true},
		{"noext", false},
		{"trailingdot.", false},
		{"image.bmp", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsImageFile(tt.path); got != tt.expected {
				t.Errorf("IsImageFile(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestClassify_ScenarioE(t *testing.T) {
	in := []string{"a.PNG", "b.txt", "c.svg"}
	res := Classify(in, Identity)

	if !reflect.DeepEqual(res.Images, []string{"a.PNG", "c.svg"}) {
		t.Errorf("Images = %v", res.Images)
	}
	if !reflect.DeepEqual(res.All, []string{"a.PNG", "b.txt", "c.svg"}) {
		t.Errorf("All = %v", res.All)
	}
	if !reflect.DeepEqual(res.ImageURLs, []string{"a.PNG", "c.svg"}) {
		t.Errorf("ImageURLs = %v", res.ImageURLs)
	}
}

func TestClassify_Invariants(t *testing.T) {
	inputs := [][]string{
		nil,
		{},
		{"only.txt"},
		{"x.jpg", "x.jpg", "y.JPG"},
		{"/tmp/a.gif", "/tmp/b", "/tmp/c.webp", "/tmp/d.doc", "/tmp/e.jpeg"},
	}

	for _, in := range inputs {
		t.Run(strings.Join(in, ","), func(t *testing.T) {
			res := Classify(in, AssetURL(""))

			// All is a pass-through.
			if len(res.All) != len(in) {
				t.Fatalf("len(All) = %d, want %d", len(res.All), len(in))
			}
			for i := range in {
				if res.All[i] != in[i] {
					t.Errorf("All[%d] = %q, want %q", i, res.All[i], in[i])
				}
			}

			// Images is the ordered subsequence of matching paths.
			var want []string
			for _, p := range in {
				if IsImageFile(p) {
					want = append(want, p)
				}
			}
			if len(res.Images) != len(want) {
				t.Fatalf("len(Images) = %d, want %d", len(res.Images), len(want))
			}
			for i := range want {
				if res.Images[i] != want[i] {
					t.Errorf("Images[%d] = %q, want %q", i, res.Images[i], want[i])
				}
			}

			// One URL per image.
			if len(res.ImageURLs) != len(res.Images) {
				t.Errorf("len(ImageURLs) = %d, want %d", len(res.ImageURLs), len(res.Images))
			}
			if len(res.Entries) != len(in) {
				t.Errorf("len(Entries) = %d, want %d", len(res.Entries), len(in))
			}

			// Idempotent.
			again := Classify(in, AssetURL(""))
			if !reflect.DeepEqual(res, again) {
				t.Errorf("Classify is not idempotent: %+v vs %+v", res, again)
			}
		})
	}
}

func TestClassify_DoesNotAliasInput(t *testing.T) {
	in := []string{"a.png"}
	res := Classify(in, nil)
	res.All[0] = "changed"
	if in[0] != "a.png" {
		t.Errorf("input modified through result: %v", in)
	}
}

func TestClassify_Entries(t *testing.T) {
	res := Classify([]string{"a.png", "b.txt"}, func(p string) string { return "u:" + p })
	want := []models.FileEntry{
		{Path: "a.png", Kind: models.FileKindImage, DisplayURL: "u:a.png"},
		{Path: "b.txt", Kind: models.FileKindOther},
	}
	if !reflect.DeepEqual(res.Entries, want) {
		t.Errorf("Entries = %+v, want %+v", res.Entries, want)
	}
	if !res.Entries[0].IsImage() || res.Entries[1].IsImage() {
		t.Error("IsImage disagrees with Kind")
	}
}

func TestAssetURL(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "/a b/c.png", "asset://localhost/%2Fa%20b%2Fc.png"},
		{"http://asset.localhost/", "C:/logos/1.png", "http://asset.localhost/C:%2Flogos%2F1.png"},
		{"x://", "plain.svg", "x://plain.svg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := AssetURL(tt.prefix)(tt.path); got != tt.want {
				t.Errorf("AssetURL(%q)(%q) = %q, want %q", tt.prefix, tt.path, got, tt.want)
			}
		})
	}
}
