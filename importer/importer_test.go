package importer_test

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/staffplan/importer"
	"github.com/warp/staffplan/position"
)

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const sapExport = "\ufeffStellenplanrelevanz;Objekt ID;Sta;Objektkürzel;Objektbezeichnung;Wert Stelle;Organisationseinheit;Trfgr;BsGrd;Prozt;Beginn;Ende;Fonds;Pers.-Nr.;Mitarbeitergruppe\n" +
	"1;50001234;S;PR-01;Projektstelle;5.600,00;OE1;E 13;E13;100,0;01.01.2025;31.12.2025;F1;;E\n" +
	"1;50001235;S;PR-02;\"Halbe Stelle; befristet\";;OE1;E14;E14;50;1/15/25;;F1;00012345;E\n" +
	"\n" +
	";;S;;kein id;;;;;;;;;;\n" +
	"1;50001236;S;PR-03;Bad date;;OE1;E12;E12;100;31/31/2025;;F1;;E\n"

func TestRead_SemicolonExport(t *testing.T) {
	im := importer.New(silentLogger())

	// WHEN: Reading a German SAP export
	res, err := im.Read(strings.NewReader(sapExport), importer.FormatCSV, "unit-1")
	require.NoError(t, err)

	// THEN: Valid rows are imported, broken ones counted
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Positions, 2)

	first := res.Positions[0]
	assert.Equal(t, "50001234", first.PositionID)
	assert.Equal(t, "1", first.RelevanceCategory)
	assert.Equal(t, "PR-01", first.ObjectCode)
	assert.Equal(t, "Projektstelle", first.ObjectDescription)
	assert.Equal(t, "E 13", first.GradeCode, "raw grade is kept")
	assert.Equal(t, "5600.00", first.PositionValue.Decimal.StringFixed(2))
	assert.Equal(t, "100", first.Percentage.String())
	assert.Equal(t, "2025-01-01", first.StartDate.String())
	assert.Equal(t, "2025-12-31", first.EndDate.String())
	assert.Equal(t, "", first.PersonnelNumber)
	assert.Equal(t, "unit-1", first.OrgUnitID)

	second := res.Positions[1]
	assert.Equal(t, "Halbe Stelle; befristet", second.ObjectDescription)
	assert.False(t, second.PositionValue.Valid)
	assert.Equal(t, "50", second.Percentage.String())
	assert.Equal(t, "2025-01-15", second.StartDate.String())
	assert.Nil(t, second.EndDate)
	assert.Equal(t, "00012345", second.PersonnelNumber, "fuzzy header Pers.-Nr.")
	assert.True(t, second.IsOccupying())
}

func TestRead_CommaExportWithEnglishHeaders(t *testing.T) {
	src := "Position ID,Grade,Percentage,Start Date,End Date,Personnel Number,Relevance\n" +
		"P1,E13,\"62,5\",2025-03-01,2025-08-31,,2\n"

	res, err := importer.New(silentLogger()).Read(strings.NewReader(src), importer.FormatCSV, "")
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)

	p := res.Positions[0]
	assert.Equal(t, "E13", p.GradeCode)
	assert.Equal(t, "62.5", p.Percentage.String())
	assert.Equal(t, "2025-03-01", p.StartDate.String())
	assert.Equal(t, "2", p.RelevanceCategory)
}

func TestRead_MissingPercentageDefaultsToZero(t *testing.T) {
	src := "Objekt ID\tTrfgr\tProzt\nP1\tE13\t\n"

	res, err := importer.New(silentLogger()).Read(strings.NewReader(src), importer.FormatCSV, "u")
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.True(t, res.Positions[0].Percentage.IsZero())
}

func TestRead_EmptyFile(t *testing.T) {
	_, err := importer.New(silentLogger()).Read(strings.NewReader(""), importer.FormatCSV, "u")
	assert.ErrorIs(t, err, importer.ErrEmptyFile)

	_, err = importer.New(silentLogger()).Read(strings.NewReader("x"), importer.Format("pdf"), "u")
	assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Objekt ID", "Objektbezeichnung", "Trfgr", "Prozt", "Beginn", "Ende", "PersNr"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"50001234", "Projektstelle", "E13", 62.5, "01.03.2025", "31.08.2025", "00012345"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"50001235", "Platzhalter", "E12", 100, "", "", position.PlaceholderPersonnel}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := importer.New(silentLogger()).Read(buf, importer.FormatXLSX, "unit-x")
	require.NoError(t, err)
	require.Len(t, res.Positions, 2)

	assert.Equal(t, "62.5", res.Positions[0].Percentage.String())
	assert.Equal(t, "2025-03-01", res.Positions[0].StartDate.String())
	assert.Equal(t, "2025-08-31", res.Positions[0].EndDate.String())
	assert.True(t, res.Positions[1].IsPlaceholder())
	assert.Nil(t, res.Positions[1].StartDate)
}

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    importer.Format
		wantErr bool
	}{
		{"plan.csv", importer.FormatCSV, false},
		{"PLAN.XLSX", importer.FormatXLSX, false},
		{"plan.tsv", importer.FormatCSV, false},
		{"plan.pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := importer.FormatFromFilename(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', importer.DetectDelimiter("a;b;c,d"))
	assert.Equal(t, '\t', importer.DetectDelimiter("a\tb\tc;d"))
	assert.Equal(t, ',', importer.DetectDelimiter("a,b;c"))
	assert.Equal(t, ',', importer.DetectDelimiter("single"))
}

func TestMapHeaders(t *testing.T) {
	m := importer.MapHeaders([]string{"Objekt ID", "Objektkürzel", "Prozt", "Pers.-Nr.", "unrelated"})

	assert.Equal(t, 0, m[importer.FieldPositionID])
	assert.Equal(t, 1, m[importer.FieldObjectCode])
	assert.Equal(t, 2, m[importer.FieldPercentage])
	assert.Equal(t, 3, m[importer.FieldPersonnelNumber])
	assert.Len(t, m, 4)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-03-01", "2025-03-01"},
		{"1.3.2025", "2025-03-01"},
		{"01.03.2025", "2025-03-01"},
		{"3/1/2025", "2025-03-01"},
		{"3/1/25", "2025-03-01"},
		{"3/1/30", "2030-03-01"},
		{"3/1/31", "1931-03-01"},
		{"3-1-99", "1999-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := importer.ParseDate(tt.in)
			require.NoError(t, err)
			require.NotNil(t, d)
			assert.Equal(t, tt.want, d.String())
		})
	}

	d, err := importer.ParseDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = importer.ParseDate("March 1st")
	assert.Error(t, err)
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"62.5", "62.5"},
		{"62,5", "62.5"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"50 %", "50"},
		{" 5 600,00 ", "5600"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := importer.ParseDecimal(tt.in)
			require.NoError(t, err)
			require.True(t, d.Valid)
			assert.Equal(t, tt.want, d.Decimal.String())
		})
	}

	d, err := importer.ParseDecimal("")
	require.NoError(t, err)
	assert.False(t, d.Valid)

	_, err = importer.ParseDecimal("n/a")
	assert.Error(t, err)
}
