// Package utils holds small helpers shared by the HTTP layer and the gateway
// client.
package utils

import "strconv"

// AtoiDefault parses s, returning def when s is empty or not an integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage parses page and page size query values. Page is at least 1;
// size defaults to def and is bounded to [1, max].
func ClampPage(pageStr, sizeStr string, def, max int) (page, size int) {
	page = AtoiDefault(pageStr, 1)
	if page < 1 {
		page = 1
	}
	size = AtoiDefault(sizeStr, def)
	switch {
	case size < 1:
		size = 1
	case size > max:
		size = max
	}
	return page, size
}

// TotalPages is ceil(total/size); zero for an empty list.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
