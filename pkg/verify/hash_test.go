package verify

import (
	"strings"
	"testing"
)

func TestHashContent(t *testing.T) {
	// Known SHA-256 vectors.
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty",
			content: "",
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "abc",
			content: "abc",
			want:    "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashContent([]byte(tt.content)); got != tt.want {
				t.Errorf("HashContent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHashReader(t *testing.T) {
	content := strings.Repeat("snapshot bytes ", 1000)

	fromReader, err := HashReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("HashReader: %v", err)
	}
	if fromReader != HashContent([]byte(content)) {
		t.Error("HashReader and HashContent disagree on the same content")
	}
}
