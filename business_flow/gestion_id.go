package businessflow

import (
	"fmt"
	"strings"

	"github.com/turnixpro/turnix/utils"
)

// maxGestionIndex is the linear index of Z999
const maxGestionIndex = utils.GestionIDLetters*utils.GestionIDNumbersPerLetter - 1

// IsGestionID reports whether s is exactly one uppercase ASCII letter followed by three digits
// in 001..999. Input is matched as-is: callers trim and upper-case beforehand.
func IsGestionID(s string) bool {
	if len(s) != 4 {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s[1:] != "000"
}

// GestionIDToIndex maps a valid id onto 0..25973 so that A001 -> 0, A999 -> 998, B001 -> 999
func GestionIDToIndex(id string) (int, error) {
	if !IsGestionID(id) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGestionID, id)
	}
	letter := int(id[0] - 'A')
	number := int(id[1]-'0')*100 + int(id[2]-'0')*10 + int(id[3]-'0')
	return letter*utils.GestionIDNumbersPerLetter + (number - 1), nil
}

// GestionIDFromIndex is the inverse of GestionIDToIndex
func GestionIDFromIndex(index int) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("%w: negative index %d", ErrInvalidGestionID, index)
	}
	if index > maxGestionIndex {
		return "", ErrSpaceExhausted
	}
	letter := byte('A' + index/utils.GestionIDNumbersPerLetter)
	number := index%utils.GestionIDNumbersPerLetter + 1
	return fmt.Sprintf("%c%03d", letter, number), nil
}

// CompareGestionIDs orders ids by (letter, number). Invalid ids sort before valid ones
// and compare among themselves as plain strings.
func CompareGestionIDs(a, b string) int {
	ia, errA := GestionIDToIndex(a)
	ib, errB := GestionIDToIndex(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	}
	return 0
}

// NextGestionID returns the immediate successor of the highest valid id in column.
// Entries that are not ids (header, blanks, lowercase, wrong length) are ignored and gaps are
// never back-filled. With no valid entries the result is A001. Once Z999 is present the
// space is exhausted and ErrSpaceExhausted is returned.
func NextGestionID(column []string) (string, error) {
	maxIndex := -1
	for _, v := range column {
		idx, err := GestionIDToIndex(v)
		if err != nil {
			continue
		}
		if idx > maxIndex {
			maxIndex = idx
		}
	}
	if maxIndex < 0 {
		return utils.FirstGestionID, nil
	}

	next := maxIndex + 1
	if next > maxGestionIndex {
		return "", ErrSpaceExhausted
	}
	return GestionIDFromIndex(next)
}

// NormalizeIDColumn trims and upper-cases raw column values before they reach NextGestionID
// or a membership test.
func NormalizeIDColumn(raw []string) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}

func containsGestionID(column []string, id string) bool {
	for _, v := range column {
		if v == id {
			return true
		}
	}
	return false
}
