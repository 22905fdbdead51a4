package model

import "strings"

func splitTrim(raw, sep string) []string {
	items := strings.Split(raw, sep)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}
