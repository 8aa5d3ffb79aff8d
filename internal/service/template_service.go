// internal/service/template_service.go
package service

import (
	"strings"
)

// RenderTemplate substitutes {key} markers with known recipient attributes.
// Keys with no usable value and markers that match nothing stay literal;
// rendering never fails.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if strings.TrimSpace(v) == "" {
			continue
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}
