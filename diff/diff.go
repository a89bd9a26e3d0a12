// Package diff computes which base-language keys a target file lacks.
package diff

// Missing returns the keys of base that are not in target, in base order.
// Duplicates in base are kept. Neither input is modified.
func Missing(base []string, target map[string]struct{}) []string {
	missing := []string{}
	for _, k := range base {
		if _, ok := target[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

