package ml

import (
	"math"
	"strings"
)

var sequenceCleaner = strings.NewReplacer(" ", "", "\n", "", "\r", "")

func Clean(s string) string {
	return sequenceCleaner.Replace(strings.ToUpper(s))
}

func isHydrophobic(r rune) bool {
	return strings.ContainsRune(HydrophobicResidues, r)
}

func HydrophobicFraction(seq string) float64 {
	seq = Clean(seq)
	count := 0
	total := 0
	for _, r := range seq {
		total++
		if isHydrophobic(r) {
			count++
		}
	}
	if total < 1 {
		total = 1
	}
	return float64(count) / float64(total)
}

func NTermHydrophobicFraction(seq string, window int) float64 {
	seq = Clean(seq)
	runes := []rune(seq)
	if window >= 0 && window < len(runes) {
		runes = runes[:window]
	}
	return HydrophobicFraction(string(runes))
}

// Round3 rounds half away from zero to three decimals.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
