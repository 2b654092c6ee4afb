// Package gradeseed loads pay-grade tables from YAML and applies them to a
// grade store.
//
// File format:
//
//	grades:
//	  - code: E13
//	    type: E
//	    display_name: Entgeltgruppe 13
//	    monthly_value: 5600.00
//	    min_salary: 4800.00   # optional
//	    max_salary: 6900.00   # optional
//	    sort_order: 70
//	    active: true          # optional, defaults to true
//
// Seeding is idempotent: codes that already exist are updated in place.
package gradeseed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/warp/staffplan/position"
)

//go:embed grades.yaml
var defaultTable []byte

// File is a parsed seed file.
type File struct {
	Grades []Entry `yaml:"grades"`
}

// Entry is one grade in a seed file. Money fields stay strings so the
// original decimal text is preserved.
type Entry struct {
	Code         string `yaml:"code"`
	Type         string `yaml:"type"`
	DisplayName  string `yaml:"display_name"`
	MonthlyValue string `yaml:"monthly_value"`
	MinSalary    string `yaml:"min_salary"`
	MaxSalary    string `yaml:"max_salary"`
	SortOrder    int    `yaml:"sort_order"`
	Active       *bool  `yaml:"active"`
}

// Result counts what Apply did.
type Result struct {
	Created int
	Updated int
}

// Default returns the embedded grade table.
func Default() (*File, error) {
	return Load(bytes.NewReader(defaultTable))
}

// LoadFile reads a seed file from disk.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grade seed: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a seed file.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse grade seed: %w", err)
	}
	return &f, nil
}

// GradeValues converts the entries, rejecting blank codes, duplicate codes
// and malformed amounts.
func (f *File) GradeValues() ([]position.GradeValue, error) {
	values := make([]position.GradeValue, 0, len(f.Grades))
	seen := make(map[string]bool)

	for i, e := range f.Grades {
		code := position.NormalizeGrade(e.Code)
		if code == "" {
			return nil, fmt.Errorf("grade %d: code is required", i+1)
		}
		if seen[code] {
			return nil, fmt.Errorf("grade %d: duplicate code %s", i+1, code)
		}
		seen[code] = true

		monthly, err := parseAmount(e.MonthlyValue)
		if err != nil {
			return nil, fmt.Errorf("grade %s: monthly_value: %w", code, err)
		}
		minSalary, err := parseAmount(e.MinSalary)
		if err != nil {
			return nil, fmt.Errorf("grade %s: min_salary: %w", code, err)
		}
		maxSalary, err := parseAmount(e.MaxSalary)
		if err != nil {
			return nil, fmt.Errorf("grade %s: max_salary: %w", code, err)
		}

		active := true
		if e.Active != nil {
			active = *e.Active
		}

		values = append(values, position.GradeValue{
			GradeCode:    code,
			GradeType:    e.Type,
			DisplayName:  e.DisplayName,
			MonthlyValue: monthly,
			MinSalary:    minSalary,
			MaxSalary:    maxSalary,
			SortOrder:    e.SortOrder,
			Active:       active,
		})
	}
	return values, nil
}

func parseAmount(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("negative amount %s", s)
	}
	return decimal.NewNullDecimal(d), nil
}

// Apply creates missing grades and updates existing ones.
func Apply(ctx context.Context, store position.GradeStore, values []position.GradeValue, log logrus.FieldLogger) (Result, error) {
	var res Result
	for _, v := range values {
		existing, err := store.FindGradeValue(ctx, v.GradeCode)
		switch {
		case position.IsNotFound(err):
			if _, err := store.CreateGradeValue(ctx, v); err != nil {
				return res, fmt.Errorf("create grade %s: %w", v.GradeCode, err)
			}
			res.Created++
		case err != nil:
			return res, fmt.Errorf("find grade %s: %w", v.GradeCode, err)
		default:
			v.ID = existing.ID
			if _, err := store.UpdateGradeValue(ctx, v); err != nil {
				return res, fmt.Errorf("update grade %s: %w", v.GradeCode, err)
			}
			res.Updated++
		}
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"created": res.Created,
			"updated": res.Updated,
		}).Info("grade table seeded")
	}
	return res, nil
}
