package util

import (
	"strings"
	"time"
)

// FormatDuration renders a duration rounded to whole seconds, dropping the
// zero-valued trailing units Go's own formatting keeps ("1m0s", "1h0m").
func FormatDuration(d time.Duration) string {
	rounded := d.Round(time.Second)
	if rounded == 0 {
		return "0s"
	}
	res := rounded.String()
	if strings.HasSuffix(res, "m0s") {
		res = strings.TrimSuffix(res, "0s")
	}
	if strings.HasSuffix(res, "h0m") {
		res = strings.TrimSuffix(res, "0m")
	}
	return res
}
