/*
Package importer reads staff-plan exports into position rows.

PURPOSE:
  HR systems export the staff plan as CSV or XLSX with localized headers
  ("Objektbezeichnung", "Trfgr", "Beginn", ...), mixed date formats and
  decimal commas. The importer turns such a file into position.Position
  rows for one organizational unit.

FORMATS:
  CSV:  Delimiter detected from the header line (tab, ';' or ','), UTF-8
        BOM stripped, quoted fields supported.
  XLSX: First sheet, formatted cell values.

ROW HANDLING:
  - Blank lines are ignored.
  - Rows without a position id, or with a malformed date or number, are
    skipped and counted. The first few are logged at Warn.

SEE ALSO:
  - headers.go: Header to field mapping
  - values.go: Date and number parsing
*/
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/warp/staffplan/position"
)

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format (use .csv or .xlsx)")

// ErrEmptyFile is returned when a file has no header row.
var ErrEmptyFile = errors.New("file has no header row")

// maxSkipLogs bounds the per-file warnings about skipped rows.
const maxSkipLogs = 10

// FormatFromFilename picks the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Result is the outcome of reading one file.
type Result struct {
	Positions []position.Position
	Imported  int
	Skipped   int
	Columns   ColumnMap
}

// Importer parses staff-plan files.
type Importer struct {
	log logrus.FieldLogger
}

// New creates an importer.
func New(log logrus.FieldLogger) *Importer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{log: log}
}

// Read parses r and tags every row with orgUnitID.
func (im *Importer) Read(r io.Reader, format Format, orgUnitID string) (*Result, error) {
	var records [][]string
	var err error

	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	return im.convert(records, orgUnitID), nil
}

func (im *Importer) convert(records [][]string, orgUnitID string) *Result {
	columns := MapHeaders(records[0])
	im.log.WithFields(logrus.Fields{
		"headers": len(records[0]),
		"mapped":  len(columns),
		"format":  "staff-plan",
	}).Info("mapped import headers")

	res := &Result{Columns: columns, Positions: make([]position.Position, 0, len(records)-1)}
	for i, record := range records[1:] {
		line := i + 2
		if isBlank(record) {
			continue
		}
		p, err := toPosition(record, columns)
		if err != nil {
			res.Skipped++
			if res.Skipped <= maxSkipLogs {
				im.log.WithFields(logrus.Fields{
					"line":  line,
					"error": err.Error(),
				}).Warn("skipping import row")
			}
			continue
		}
		p.OrgUnitID = orgUnitID
		res.Positions = append(res.Positions, p)
	}
	res.Imported = len(res.Positions)

	im.log.WithFields(logrus.Fields{
		"imported": res.Imported,
		"skipped":  res.Skipped,
		"org_unit": orgUnitID,
	}).Info("import file parsed")
	return res
}

func toPosition(record []string, c ColumnMap) (position.Position, error) {
	p := position.Position{
		PositionID:        c.Value(record, FieldPositionID),
		Status:            c.Value(record, FieldStatus),
		ObjectCode:        c.Value(record, FieldObjectCode),
		ObjectDescription: c.Value(record, FieldObjectDescription),
		RelevanceCategory: c.Value(record, FieldRelevanceCategory),
		OrganizationUnit:  c.Value(record, FieldOrganizationUnit),
		GradeCode:         c.Value(record, FieldGradeCode),
		BaseGrade:         c.Value(record, FieldBaseGrade),
		Fund:              c.Value(record, FieldFund),
		PersonnelNumber:   c.Value(record, FieldPersonnelNumber),
		EmployeeGroup:     c.Value(record, FieldEmployeeGroup),
	}
	if p.PositionID == "" {
		return p, errors.New("missing position id")
	}

	var err error
	if p.PositionValue, err = ParseDecimal(c.Value(record, FieldPositionValue)); err != nil {
		return p, fmt.Errorf("position value: %w", err)
	}
	percentage, err := ParseDecimal(c.Value(record, FieldPercentage))
	if err != nil {
		return p, fmt.Errorf("percentage: %w", err)
	}
	p.Percentage = percentage.Decimal
	if p.StartDate, err = ParseDate(c.Value(record, FieldStartDate)); err != nil {
		return p, fmt.Errorf("start date: %w", err)
	}
	if p.EndDate, err = ParseDate(c.Value(record, FieldEndDate)); err != nil {
		return p, fmt.Errorf("end date: %w", err)
	}
	return p, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// CSV
// =============================================================================

func readCSV(r io.Reader) ([][]string, error) {
	br := stripUTF8BOM(bufio.NewReader(r))

	header, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if strings.TrimSpace(header) == "" {
		return nil, ErrEmptyFile
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(header), br))
	cr.Comma = DetectDelimiter(header)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = r.Discard(3)
	}
	return r
}

// DetectDelimiter picks tab, ';' or ',' by frequency in the header line.
// Ties go to ','.
func DetectDelimiter(header string) rune {
	tabs := strings.Count(header, "\t")
	semicolons := strings.Count(header, ";")
	commas := strings.Count(header, ",")

	if tabs > semicolons && tabs > commas {
		return '\t'
	}
	if semicolons > commas {
		return ';'
	}
	return ','
}

// =============================================================================
// XLSX
// =============================================================================

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
