package metrics

const namespace = "zepzep"

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
