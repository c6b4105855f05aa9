package triage

import (
	"strings"
	"unicode"
)

// Normalize lower-cases name, drops everything that is not a letter, digit
// or whitespace, and collapses whitespace runs to single spaces.
func Normalize(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, name)
	return strings.Join(strings.Fields(cleaned), " ")
}

// FuzzyMatch is the single symptom-name equivalence used across the engine:
// two normalized names match when they are equal or either contains the
// other. It over-matches on short tokens ("pain" matches "chest pain"); keep
// every caller on this function so the rule can be replaced in one place.
// Empty names never match.
func FuzzyMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// containsOrEqual is the one-directional variant used to resolve which
// patient symptom a catalog symptom refers to.
func containsOrEqual(patient, catalogName string) bool {
	if patient == "" || catalogName == "" {
		return false
	}
	return patient == catalogName || strings.Contains(patient, catalogName)
}

func normalizeAll(symptoms []PatientSymptom) []string {
	names := make([]string, len(symptoms))
	for i, s := range symptoms {
		names[i] = Normalize(s.Name)
	}
	return names
}
