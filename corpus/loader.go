// Package corpus 加载书库：书目元数据与逐行情绪特征表（由离线 ETL 产出）。
//
// 支持 .csv / .tsv（encoding/csv）与 .parquet（DuckDB read_parquet）。
// 加载结果在进程内只读，启动时加载一次。
package corpus

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/pkg/conv"
	"github.com/rushteam/moodrec/recall"
)

// Format 是书库文件格式。
type Format string

const (
	FormatAuto    Format = ""
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatParquet Format = "parquet"
)

// DefaultTitleColumn 是书名列的默认列名。
const DefaultTitleColumn = "Title"

// droppedColumns 是不进入 Meta 的大文本列。
var droppedColumns = map[string]bool{"Description": true, "full_txt": true}

type options struct {
	format   Format
	title    string
	features []string
	logger   zerolog.Logger
}

// Option 配置 Load。
type Option func(*options)

// WithFormat 指定格式，覆盖按扩展名识别。
func WithFormat(f Format) Option { return func(o *options) { o.format = f } }

func WithTitleColumn(col string) Option { return func(o *options) { o.title = col } }

// WithFeatureColumns 指定特征列及其顺序，默认为 core.Vocabulary。
func WithFeatureColumns(cols ...string) Option {
	return func(o *options) { o.features = append([]string(nil), cols...) }
}

func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = l } }

// table 是格式无关的原始表。
type table struct {
	columns []string
	rows    [][]any
}

// Load 读取书库并构建行对齐、已归一化的特征矩阵。
// 路径不存在返回 NOT_FOUND，格式或内容错误返回 MALFORMED_DATA，模块均为 corpus。
func Load(ctx context.Context, path string, opts ...Option) (*core.Corpus, error) {
	o := options{title: DefaultTitleColumn, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.features) == 0 {
		o.features = core.Vocabulary
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.WrapDomainError(core.ModuleCorpus, core.ErrorCodeNotFound,
				fmt.Sprintf("corpus %s not found", path), err)
		}
		return nil, core.WrapDomainError(core.ModuleCorpus, core.ErrorCodeMalformedData,
			fmt.Sprintf("stat corpus %s", path), err)
	}

	format := o.format
	if format == FormatAuto {
		format = DetectFormat(path)
	}

	var (
		t   *table
		err error
	)
	switch format {
	case FormatCSV:
		t, err = readDelimited(path, ',')
	case FormatTSV:
		t, err = readDelimited(path, '\t')
	case FormatParquet:
		t, err = readParquet(ctx, path)
	default:
		return nil, core.NewDomainError(core.ModuleCorpus, core.ErrorCodeNotSupported,
			fmt.Sprintf("unsupported corpus format %q for %s", format, path))
	}
	if err != nil {
		return nil, err
	}

	c, dups, err := build(t, o.title, o.features)
	if err != nil {
		return nil, err
	}
	if dups > 0 {
		o.logger.Warn().Str("path", path).Int("duplicates", dups).Msg("corpus has duplicate titles")
	}
	o.logger.Info().Str("path", path).Str("format", string(format)).
		Int("books", c.Len()).Int("dimension", c.Dimension()).Msg("corpus loaded")
	return c, nil
}

// DetectFormat 按扩展名识别格式，未知扩展名返回 FormatAuto。
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".tsv", ".tab":
		return FormatTSV
	case ".parquet", ".pq":
		return FormatParquet
	default:
		return FormatAuto
	}
}

func malformed(msg string, err error) error {
	return core.WrapDomainError(core.ModuleCorpus, core.ErrorCodeMalformedData, msg, err)
}

func readDelimited(path string, comma rune) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, malformed("open "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.NewDomainError(core.ModuleCorpus, core.ErrorCodeMalformedData, path+": missing header")
		}
		return nil, malformed("read header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &table{columns: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed("read "+path, err)
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func readParquet(ctx context.Context, path string) (*table, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, malformed("open duckdb", err)
	}
	defer db.Close()

	query := "SELECT * FROM read_parquet(" + quoteLiteral(path) + ")"
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, malformed("read parquet "+path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, malformed("parquet columns", err)
	}
	t := &table{columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, malformed("scan parquet row", err)
		}
		t.rows = append(t.rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, malformed("iterate parquet", err)
	}
	return t, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// build 把原始表转换为 Corpus，返回重复书名的数量。
func build(t *table, titleCol string, features []string) (*core.Corpus, int, error) {
	index := make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		index[c] = i
	}
	titleIdx, ok := index[titleCol]
	if !ok {
		return nil, 0, core.NewDomainError(core.ModuleCorpus, core.ErrorCodeMalformedData,
			fmt.Sprintf("missing title column %q", titleCol))
	}
	featIdx := make([]int, len(features))
	isFeature := make(map[int]bool, len(features))
	for i, f := range features {
		j, ok := index[f]
		if !ok {
			return nil, 0, core.NewDomainError(core.ModuleCorpus, core.ErrorCodeMalformedData,
				fmt.Sprintf("missing feature column %q", f))
		}
		featIdx[i] = j
		isFeature[j] = true
	}

	c := &core.Corpus{
		Books:   make([]core.Book, 0, len(t.rows)),
		Matrix:  make([][]float64, 0, len(t.rows)),
		Columns: append([]string(nil), features...),
	}
	seen := make(map[string]bool, len(t.rows))
	dups := 0

	for r, row := range t.rows {
		raw := make([]float64, len(features))
		emotions := make(map[string]float64, len(features))
		for i, j := range featIdx {
			v, ok := conv.ToFloat64(row[j])
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, 0, core.NewDomainError(core.ModuleCorpus, core.ErrorCodeMalformedData,
					fmt.Sprintf("row %d column %q: non-numeric value %v", r+1, features[i], row[j]))
			}
			raw[i] = v
			emotions[features[i]] = v
		}

		meta := make(map[string]any)
		for j, col := range t.columns {
			if j == titleIdx || isFeature[j] || droppedColumns[col] {
				continue
			}
			meta[col] = row[j]
		}

		title := titleString(row[titleIdx])
		if seen[title] {
			dups++
		}
		seen[title] = true

		c.Books = append(c.Books, core.Book{ID: r, Title: title, Emotions: emotions, Meta: meta})
		c.Matrix = append(c.Matrix, recall.Normalize(raw))
	}

	if err := c.Validate(); err != nil {
		return nil, 0, err
	}
	return c, dups, nil
}

func titleString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}
