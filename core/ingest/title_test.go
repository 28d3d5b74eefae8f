package ingest

import "testing"

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"02 My Song 320Kbps.mp3", "My Song"},
		{"07. Another Track.mp3", "Another Track"},
		{"3 - Wind_And_Rain 128 kbps.mp3", "Wind And Rain"},
		{"plain_title.flac", "plain title"},
		{"NoExtension", "NoExtension"},
		{"02 .mp3", "02 .mp3"}, // 清理后为空时退回原文件名
	}
	for _, c := range cases {
		if got := CleanTitle(c.in); got != c.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRandomPlaceholderArt(t *testing.T) {
	art := RandomPlaceholderArt()
	found := false
	for _, p := range placeholderArt {
		if p == art {
			found = true
		}
	}
	if !found {
		t.Fatalf("placeholder %q is not from the fixed pool", art)
	}
}
