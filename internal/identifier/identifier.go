// Package identifier formats and parses the lab and exhibit numbers printed
// on legal paperwork. Sequence allocation lives in the repository layer.
package identifier

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	labPrefix     = "FB/CYBER"
	exhibitPrefix = "CYB/LAB"
)

// LabScope is the counter scope for lab numbers issued in year.
func LabScope(year int) string {
	return fmt.Sprintf("lab:%d", year)
}

// ExhibitScope is the counter scope for exhibits of a lab number.
func ExhibitScope(labNumber string) string {
	return "exhibit:" + labNumber
}

// LabNumber formats FB/CYBER/<year>/<seq:4>.
func LabNumber(year, seq int) (string, error) {
	if year < 1000 || year > 9999 {
		return "", fmt.Errorf("lab number year %d out of range", year)
	}
	if seq < 1 {
		return "", fmt.Errorf("lab number sequence must be positive, got %d", seq)
	}
	return fmt.Sprintf("%s/%d/%04d", labPrefix, year, seq), nil
}

// Lab is a parsed lab number.
type Lab struct {
	Year     int
	Sequence int
}

// Segment returns the "<year>-<seq:4>" form used in blob paths.
func (l Lab) Segment() string {
	return fmt.Sprintf("%d-%04d", l.Year, l.Sequence)
}

// ParseLabNumber splits a lab number into year and sequence.
func ParseLabNumber(labNumber string) (Lab, error) {
	rest, ok := strings.CutPrefix(labNumber, labPrefix+"/")
	if !ok {
		return Lab{}, fmt.Errorf("lab number %q: missing %s prefix", labNumber, labPrefix)
	}
	return parseYearSeq(rest, labNumber)
}

// Suffix returns the exhibit suffix for the n-th exhibit of a case. A case
// registered with exactly one exhibit gets the bare "A".
func Suffix(n, batchSize int) string {
	if n == 1 && batchSize == 1 {
		return "A"
	}
	return "A" + strconv.Itoa(n)
}

// ExhibitNumber formats CYB/LAB/<year>/<seq:4>/<suffix>.
func ExhibitNumber(labNumber string, n, batchSize int) (string, error) {
	lab, err := ParseLabNumber(labNumber)
	if err != nil {
		return "", err
	}
	if n < 1 {
		return "", fmt.Errorf("exhibit index must be positive, got %d", n)
	}
	return fmt.Sprintf("%s/%d/%04d/%s", exhibitPrefix, lab.Year, lab.Sequence, Suffix(n, batchSize)), nil
}

// Exhibit is a parsed exhibit number. Index is 1 for the bare "A".
type Exhibit struct {
	Lab   Lab
	Index int
	Bare  bool
}

// LabNumber reconstructs the owning lab number.
func (e Exhibit) LabNumber() string {
	return fmt.Sprintf("%s/%d/%04d", labPrefix, e.Lab.Year, e.Lab.Sequence)
}

// ParseExhibitNumber validates and splits an exhibit number.
func ParseExhibitNumber(number string) (Exhibit, error) {
	rest, ok := strings.CutPrefix(number, exhibitPrefix+"/")
	if !ok {
		return Exhibit{}, fmt.Errorf("exhibit number %q: missing %s prefix", number, exhibitPrefix)
	}
	idx := strings.LastIndex(rest, "/")
	if idx < 0 {
		return Exhibit{}, fmt.Errorf("exhibit number %q: missing suffix", number)
	}
	lab, err := parseYearSeq(rest[:idx], number)
	if err != nil {
		return Exhibit{}, err
	}
	suffix := rest[idx+1:]
	if suffix == "A" {
		return Exhibit{Lab: lab, Index: 1, Bare: true}, nil
	}
	digits, ok := strings.CutPrefix(suffix, "A")
	if !ok {
		return Exhibit{}, fmt.Errorf("exhibit number %q: suffix %q must start with A", number, suffix)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || strconv.Itoa(n) != digits {
		return Exhibit{}, fmt.Errorf("exhibit number %q: invalid suffix %q", number, suffix)
	}
	return Exhibit{Lab: lab, Index: n}, nil
}

func parseYearSeq(raw, full string) (Lab, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return Lab{}, fmt.Errorf("%q: expected <year>/<sequence>", full)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return Lab{}, fmt.Errorf("%q: invalid year %q", full, parts[0])
	}
	seq, err := strconv.Atoi(parts[1])
	if err != nil || seq < 1 || len(parts[1]) < 4 {
		return Lab{}, fmt.Errorf("%q: invalid sequence %q", full, parts[1])
	}
	return Lab{Year: year, Sequence: seq}, nil
}
