package httpapi

import (
	"os"
	"time"
)

func osReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func uptimeSeconds(startedAt time.Time) float64 {
	if startedAt.IsZero() {
		return 0
	}
	return time.Since(startedAt).Seconds()
}
