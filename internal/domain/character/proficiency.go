package character

import "strconv"

// Proficiency returns the signed proficiency bonus for a level:
// +2 for levels 1-4, +3 for 5-8 and so on.
func Proficiency(level int) string {
	return "+" + strconv.Itoa((level-1)/4+2)
}
