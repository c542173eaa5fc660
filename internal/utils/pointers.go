package utils

func IntPtr(i int) *int {
	return &i
}

// NilIfEmpty returns nil for an empty string so optional columns stay NULL.
func NilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
