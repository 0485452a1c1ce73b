package domain

import (
	"strconv"
	"strings"
)

// ExtractID ne garde que les chiffres de ref et les parse.
// ".../character/17" donne 17; une référence sans chiffre donne false.
func ExtractID(ref string) (int, bool) {
	digits := extractDigits(ref)
	if digits == "" {
		return 0, false
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return id, true
}

func ExtractIDs(refs []string) []int {
	out := make([]int, 0, len(refs))
	for _, ref := range refs {
		if id, ok := ExtractID(ref); ok {
			out = append(out, id)
		}
	}
	return out
}

// JoinIDs formate les ids comme les endpoints groupés les attendent: "1,2,3".
func JoinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}

func extractDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
