package tui

import "testing"

func TestParseIngestOne(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		file   string
		pages  int
		chunks int
	}{
		{name: "bare filename", input: "doc.pdf", file: "doc.pdf", pages: -1, chunks: -1},
		{name: "filename with spaces", input: "annual report.pdf", file: "annual report.pdf", pages: -1, chunks: -1},
		{name: "pages only", input: "doc.pdf 10", file: "doc.pdf", pages: 10, chunks: -1},
		{name: "pages and chunks", input: "doc.pdf 10 100", file: "doc.pdf", pages: 10, chunks: 100},
		{name: "spaced name with limits", input: "annual report.pdf 5 50", file: "annual report.pdf", pages: 5, chunks: 50},
		{name: "trailing word is not a limit", input: "my notes", file: "my notes", pages: -1, chunks: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := parseIngestOne(tc.input)
			if params.Filename != tc.file {
				t.Fatalf("filename: got %q want %q", params.Filename, tc.file)
			}
			if tc.pages == -1 {
				if params.MaxPages != nil {
					t.Fatalf("expected no max pages, got %d", *params.MaxPages)
				}
			} else if params.MaxPages == nil || *params.MaxPages != tc.pages {
				t.Fatalf("max pages: got %v want %d", params.MaxPages, tc.pages)
			}
			if tc.chunks == -1 {
				if params.MaxChunks != nil {
					t.Fatalf("expected no max chunks, got %d", *params.MaxChunks)
				}
			} else if params.MaxChunks == nil || *params.MaxChunks != tc.chunks {
				t.Fatalf("max chunks: got %v want %d", params.MaxChunks, tc.chunks)
			}
		})
	}
}
