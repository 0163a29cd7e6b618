package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rushteam/moodrec/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const smallCSV = `Title,Author,Description,joy,sadness
Dune,Herbert,"long, long text",0.8,0.1
Emma,Austen,x,0.3,0.6
Dune,Lynch,y,0.5,0.5
`

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "books.csv", smallCSV)
	c, err := Load(context.Background(), path, WithFeatureColumns("joy", "sadness"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len() != 3 || c.Dimension() != 2 {
		t.Fatalf("len = %d dim = %d", c.Len(), c.Dimension())
	}
	b := c.Books[1]
	if b.ID != 1 || b.Title != "Emma" || b.Emotions["sadness"] != 0.6 {
		t.Errorf("book = %+v", b)
	}
	if b.Meta["Author"] != "Austen" {
		t.Errorf("meta = %v", b.Meta)
	}
	if _, ok := b.Meta["Description"]; ok {
		t.Error("Description should be dropped")
	}
	for i, row := range c.Matrix {
		var sum float64
		for _, x := range row {
			sum += x * x
		}
		if math.Abs(math.Sqrt(sum)-1) > 1e-6 {
			t.Errorf("row %d not unit norm: %v", i, row)
		}
	}
}

func TestLoadDeterministic(t *testing.T) {
	path := writeFile(t, "books.csv", smallCSV)
	a, err := Load(context.Background(), path, WithFeatureColumns("joy", "sadness"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Load(context.Background(), path, WithFeatureColumns("joy", "sadness"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Matrix, b.Matrix) || !reflect.DeepEqual(a.Books, b.Books) {
		t.Error("loading twice produced different corpora")
	}
}

func TestLoadDefaultVocabulary(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Title\t" + strings.Join(core.Vocabulary, "\t") + "\n")
	for r := 0; r < 2; r++ {
		sb.WriteString(fmt.Sprintf("Book %d", r))
		for i := range core.Vocabulary {
			sb.WriteString(fmt.Sprintf("\t%v", float64((i+r)%5)/10))
		}
		sb.WriteString("\n")
	}
	path := writeFile(t, "books.tsv", sb.String())
	c, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Dimension() != len(core.Vocabulary) || c.Len() != 2 {
		t.Errorf("dim = %d len = %d", c.Dimension(), c.Len())
	}
	if !reflect.DeepEqual(c.Columns, core.Vocabulary) {
		t.Errorf("columns = %v", c.Columns)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		opts    []Option
		code    string
	}{
		{name: "missing feature column", file: "a.csv", content: smallCSV, code: core.ErrorCodeMalformedData},
		{name: "missing title", file: "a.csv", content: "Name,joy\nx,1\n", opts: []Option{WithFeatureColumns("joy")}, code: core.ErrorCodeMalformedData},
		{name: "non numeric", file: "a.csv", content: "Title,joy\nx,lots\n", opts: []Option{WithFeatureColumns("joy")}, code: core.ErrorCodeMalformedData},
		{name: "ragged row", file: "a.csv", content: "Title,joy\nx,1,2\n", opts: []Option{WithFeatureColumns("joy")}, code: core.ErrorCodeMalformedData},
		{name: "empty file", file: "a.csv", content: "", code: core.ErrorCodeMalformedData},
		{name: "unknown extension", file: "a.json", content: "{}", code: core.ErrorCodeNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := Load(context.Background(), path, tt.opts...)
			de := core.GetDomainError(err)
			if de == nil || de.Module != core.ModuleCorpus || de.Code != tt.code {
				t.Fatalf("error = %v, want corpus %s", err, tt.code)
			}
			if !core.IsDataLoadError(err) {
				t.Error("IsDataLoadError() = false")
			}
		})
	}
}

func TestLoadMissingPath(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.parquet"))
	if !core.IsDataLoadError(err) || !core.IsNotFound(err) {
		t.Fatalf("error = %v", err)
	}
}

func TestLoadHeaderOnly(t *testing.T) {
	path := writeFile(t, "empty.csv", "Title,joy\n")
	c, err := Load(context.Background(), path, WithFeatureColumns("joy"))
	if err != nil || c.Len() != 0 {
		t.Fatalf("Load() = %v, %v", c, err)
	}
}

func TestLoadParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.parquet")

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stmt := fmt.Sprintf(`COPY (SELECT * FROM (VALUES
		('Dune', 'long text', 0.8::DOUBLE, 0.1::DOUBLE, 1965),
		('Emma', 'other', 0.3::DOUBLE, 0.6::DOUBLE, 1815)
	) AS t("Title", "full_txt", joy, sadness, year)) TO %s (FORMAT PARQUET)`, quoteLiteral(path))
	if _, err := db.Exec(stmt); err != nil {
		t.Fatalf("write parquet: %v", err)
	}

	c, err := Load(context.Background(), path, WithFeatureColumns("joy", "sadness"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len() != 2 || c.Books[0].Title != "Dune" || c.Books[1].Emotions["joy"] != 0.3 {
		t.Fatalf("corpus = %+v", c.Books)
	}
	if _, ok := c.Books[0].Meta["full_txt"]; ok {
		t.Error("full_txt should be dropped")
	}
	if _, ok := c.Books[0].Meta["year"]; !ok {
		t.Error("year should be kept in meta")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.csv": FormatCSV, "A.CSV": FormatCSV, "b.tsv": FormatTSV,
		"c.parquet": FormatParquet, "d.txt": FormatAuto,
	}
	for in, want := range tests {
		if got := DetectFormat(in); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
