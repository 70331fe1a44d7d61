package service

// clampLimit maps a requested page size onto [1, ceiling]; limit <= 0 means
// def.
func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
