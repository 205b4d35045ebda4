package order

// Pure pricing and rendering rules. No state, no I/O.

// Categories sold by the piece rather than by the bottle.
var pieceCategories = map[int]bool{
	641:  true,
	1106: true,
}

// NominalTier maps the blended quantity of a whole session to the nominal
// order tier used for per-unit pricing.
func NominalTier(total int) int {
	switch {
	case total < 12:
		return 6
	case total < 24:
		return 12
	case total < 36:
		return 24
	default:
		return 36
	}
}

// ResolveTier picks the tier a category is actually priced at, given the tiers
// the category offers and the session's nominal tier. A single offered tier
// wins outright; an exact match wins; otherwise the nominal value is clamped
// to the nearest offered bound.
func ResolveTier(offered []int, nominal int) (int, error) {
	if len(offered) == 0 {
		return 0, ErrNotFound
	}
	if len(offered) == 1 {
		return offered[0], nil
	}

	min, max := offered[0], offered[0]
	for _, a := range offered {
		if a == nominal {
			return nominal, nil
		}
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}

	if min > nominal {
		return min, nil
	}
	if max < nominal {
		return max, nil
	}
	return nominal, nil
}

// UnitLabel returns the counter word for a category: 個 for piece goods,
// 本 for bottles.
func UnitLabel(categoryID int) string {
	if pieceCategories[categoryID] {
		return "個"
	}
	return "本"
}

// TruncateName shortens a category display name to at most n runes.
func TruncateName(name string, n int) string {
	r := []rune(name)
	if len(r) <= n {
		return name
	}
	return string(r[:n])
}
