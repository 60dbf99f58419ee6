package s3

import "testing"

func TestExtractKeyFromS3Url(t *testing.T) {
	cases := map[string]string{
		"https://bucket.s3.amazonaws.com/evidence/2026-03-10/abc.jpg": "evidence/2026-03-10/abc.jpg",
		"evidence/raw-key.jpg": "evidence/raw-key.jpg",
	}

	for in, want := range cases {
		if got := extractKeyFromS3Url(in); got != want {
			t.Fatalf("extractKeyFromS3Url(%q) = %q, want %q", in, got, want)
		}
	}
}
