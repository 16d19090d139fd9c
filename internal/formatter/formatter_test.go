package formatter

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/shared"
	th "github.com/desertthunder/litfav/internal/testing"
)

func sampleEntries() []models.FavoriteEntry {
	return []models.FavoriteEntry{
		{
			ID:        "f1",
			AuthorID:  "OL23919A",
			Name:      "J. K. Rowling",
			BirthDate: "31 July 1965",
			TopWork:   "Harry Potter and the Philosopher's Stone",
			AddedBy:   "jane@example.com",
			AddedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			ImageURL:  "https://covers.openlibrary.org/a/id/5543033-M.jpg",
		},
		{
			AuthorID:  "OL9388A",
			Name:      "Jane Austen",
			BirthDate: "16 December 1775",
			DeathDate: "18 July 1817",
			TopWork:   "Pride and Prejudice",
			AddedBy:   "jane@example.com",
		},
	}
}

func TestLifespan(t *testing.T) {
	tt := []struct {
		birth, death, want string
	}{
		{"1900", "1980", "1900 - 1980"},
		{"1900", "", "b. 1900"},
		{"", "1980", "d. 1980"},
		{"", "", ""},
	}
	for _, tc := range tt {
		if got := Lifespan(tc.birth, tc.death); got != tc.want {
			t.Errorf("Lifespan(%q, %q) = %q, want %q", tc.birth, tc.death, got, tc.want)
		}
	}
}

func TestExporters(t *testing.T) {
	entries := sampleEntries()

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(entries)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []models.FavoriteEntry
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].AuthorID != "OL23919A" {
			t.Errorf("unexpected decoded entries %+v", decoded)
		}
		if !strings.Contains(string(data), `"authorId": "OL23919A"`) {
			t.Errorf("expected indented camelCase JSON, got %s", data)
		}

		empty, _ := ExportToJSON(nil)
		if string(empty) != "[]" {
			t.Errorf("expected [] for no entries, got %s", empty)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(entries)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "AuthorID,Name,BirthDate,DeathDate,TopWork,AddedBy,AddedAt,ImageURL") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "OL23919A,J. K. Rowling,31 July 1965,,") {
			t.Errorf("CSV missing first record, got: %s", output)
		}
		if !strings.Contains(output, "2024-01-02T03:04:05Z") {
			t.Errorf("CSV missing RFC3339 addedAt")
		}
		if strings.Count(output, "\n") != 3 {
			t.Errorf("expected header plus two records, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("Remote Images", func(t *testing.T) {
			data, err := ExportToMarkdown("jane@example.com", entries, nil)
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Favorite Authors of jane@example.com",
				"**Authors**: 2",
				"## J. K. Rowling",
				"![J. K. Rowling](https://covers.openlibrary.org/a/id/5543033-M.jpg)",
				"- **Lived**: 16 December 1775 - 18 July 1817",
				"- **Top Work**: Pride and Prejudice",
				"https://openlibrary.org/authors/OL9388A",
				"- **Added**: 2024-01-02",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q", want)
				}
			}
		})

		t.Run("Local Images", func(t *testing.T) {
			data, _ := ExportToMarkdown("", entries, map[string]string{"OL23919A": "OL23919A.jpg"})
			output := string(data)

			if !strings.HasPrefix(output, "# Favorite Authors\n") {
				t.Errorf("expected untitled heading, got %s", output)
			}
			if !strings.Contains(output, "![J. K. Rowling](OL23919A.jpg)") {
				t.Errorf("expected local image link")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(entries)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Favorite authors: 2") {
			t.Errorf("Text missing count")
		}
		if !strings.Contains(output, "1. J. K. Rowling [OL23919A] (b. 31 July 1965) - Harry Potter") {
			t.Errorf("Text missing first line, got %s", output)
		}
		if !strings.Contains(output, "2. Jane Austen [OL9388A]") {
			t.Errorf("Text missing second line")
		}
	})

	t.Run("Export", func(t *testing.T) {
		tt := []struct {
			format string
			prefix string
			ext    string
		}{
			{format: "json", prefix: "[", ext: ".json"},
			{format: "", prefix: "[", ext: ".json"},
			{format: "csv", prefix: "AuthorID", ext: ".csv"},
			{format: "markdown", prefix: "# Favorite", ext: ".md"},
			{format: "md", prefix: "# Favorite", ext: ".md"},
			{format: "TXT", prefix: "Favorite authors", ext: ".txt"},
		}

		for _, tc := range tt {
			data, err := Export("jane@example.com", entries, tc.format)
			if err != nil {
				t.Errorf("Export(%q) failed: %v", tc.format, err)
				continue
			}
			if !strings.HasPrefix(string(data), tc.prefix) {
				t.Errorf("Export(%q) = %q..., want prefix %q", tc.format, string(data)[:10], tc.prefix)
			}
			if got := Extension(tc.format); got != tc.ext {
				t.Errorf("Extension(%q) = %s, want %s", tc.format, got, tc.ext)
			}
		}

		if _, err := Export("", entries, "yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		data, err := DownloadImage(server.URL + "/a/id/1-M.jpg")
		if err != nil || string(data) != "jpeg-bytes" {
			t.Errorf("DownloadImage() = %q, %v", data, err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		if _, err := DownloadImage(server.URL); err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("expected error for empty URL")
		}
	})
}

func TestWriters(t *testing.T) {
	entries := sampleEntries()

	t.Run("WriteExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteExport("jane@example.com", entries, "csv", "")
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if path != "favorites.csv" {
				t.Errorf("expected favorites.csv, got %s", path)
			}
			th.AssertFileExists(t, path)
			if !strings.Contains(th.MustReadFile(t, path), "Jane Austen") {
				t.Error("export file missing data")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mine.txt")
			got, err := WriteExport("", entries, "txt", path)
			if err != nil || got != path {
				t.Fatalf("WriteExport() = %s, %v", got, err)
			}
			th.AssertFileExists(t, path)
		})

		t.Run("UnknownFormat", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "x")
			if _, err := WriteExport("", entries, "xml", path); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithImages", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("jpeg"))
			}))
			defer server.Close()

			withImage := sampleEntries()
			withImage[0].ImageURL = server.URL + "/a/id/1-M.jpg"

			dir := filepath.Join(t.TempDir(), "out")
			result, err := WriteMarkdownExport("jane@example.com", withImage, dir, true)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.Images != 1 || len(result.Files) != 2 {
				t.Errorf("expected one image plus README, got %+v", result)
			}
			th.AssertFileExists(t, filepath.Join(dir, "OL23919A.jpg"))
			readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
			if !strings.Contains(readme, "![J. K. Rowling](OL23919A.jpg)") {
				t.Errorf("README should link the local image, got %s", readme)
			}
		})

		t.Run("FailedDownloadFallsBackToRemote", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			broken := sampleEntries()
			broken[0].ImageURL = server.URL + "/broken.jpg"

			dir := t.TempDir()
			result, err := WriteMarkdownExport("", broken, dir, true)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.Images != 0 {
				t.Errorf("expected no images, got %d", result.Images)
			}
			if !strings.Contains(th.MustReadFile(t, filepath.Join(dir, "README.md")), broken[0].ImageURL) {
				t.Error("README should link the remote image")
			}
		})

		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport("", entries, "", false)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.Directory != "favorites" {
				t.Errorf("expected default directory, got %s", result.Directory)
			}
			th.AssertFileExists(t, filepath.Join("favorites", "README.md"))
		})
	})
}
