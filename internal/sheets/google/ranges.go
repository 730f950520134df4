package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// resolveRange completes rng into A1 notation with an explicit sheet.
// An empty range reads the whole default sheet; a bare cell range such as
// "A1:F200" is read from the default sheet.
func (c *Client) resolveRange(rng string) (string, error) {
	rng = strings.TrimSpace(rng)
	if strings.Contains(rng, "!") {
		return rng, nil
	}
	if isCellRange(rng) {
		if c.sheet == "" {
			return "", fmt.Errorf("range %q names no sheet and no default sheet is configured", rng)
		}
		return quoteSheet(c.sheet) + "!" + rng, nil
	}
	// A bare name is a whole sheet.
	name := rng
	if name == "" {
		name = c.sheet
	}
	if name == "" {
		return "", errors.New("no range given and no default sheet is configured")
	}
	return quoteSheet(name), nil
}

// quoteSheet wraps names that A1 notation cannot carry bare.
func quoteSheet(name string) string {
	name = strings.Trim(name, "'")
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}

// isCellRange reports whether s looks like "A1", "A:H" or "B2:F200".
// A lone reference needs a row number, so short sheet names stay names.
func isCellRange(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return false
	}
	for _, part := range parts {
		col, row := splitCellRef(part)
		if !col && !row {
			return false
		}
		if len(parts) == 1 && !row {
			return false
		}
	}
	return true
}

// splitCellRef reports which halves of a reference like "AB12" are present.
// Both are false when s is not a reference.
func splitCellRef(s string) (col, row bool) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i > 3 {
		return false, false
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j != len(s) {
		return false, false
	}
	return i > 0, j > i
}

// YearSheet returns "<year> <base>" unless base already starts with a
// four-digit year, matching the usual one-tab-per-year layout.
func YearSheet(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
