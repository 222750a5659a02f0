package render

import (
	"fmt"
	"math"
	"time"
)

// FormatRelative は基準時刻nowから見たtの経過時間を短い相対表記で返す。
// 表記は "a few seconds" / "1min" / "Nmin" / "1h" / "Nh" / "1d" / "Nd" /
// "1m" / "Nm"（月） / "1y" / "Ny" のいずれか。過去方向のみを扱い、
// 未来の時刻は "a few seconds" として扱う。
func FormatRelative(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	days := diff.Hours() / 24

	switch {
	case diff < 45*time.Second:
		return "a few seconds"
	case diff < 90*time.Second:
		return "1min"
	case diff < 45*time.Minute:
		return fmt.Sprintf("%dmin", int(math.Round(diff.Minutes())))
	case diff < 90*time.Minute:
		return "1h"
	case diff < 22*time.Hour:
		return fmt.Sprintf("%dh", int(math.Round(diff.Hours())))
	case diff < 36*time.Hour:
		return "1d"
	case days < 26:
		return fmt.Sprintf("%dd", int(math.Round(days)))
	case days < 46:
		return "1m"
	case days < 320:
		return fmt.Sprintf("%dm", int(math.Round(days/30.4375)))
	case days < 548:
		return "1y"
	default:
		return fmt.Sprintf("%dy", int(math.Round(days/365.25)))
	}
}
