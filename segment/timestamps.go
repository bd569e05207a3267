package segment

import "fmt"

// hms formats seconds as zero-padded HH:MM:SS, truncated to whole seconds.
func hms(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// clockMillis formats seconds as HH:MM:SS<sep>mmm. WebVTT separates
// milliseconds with a period, SubRip with a comma; that separator is the one
// byte the two formats disagree on.
func clockMillis(seconds float64, sep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		millis/3600000, (millis/60000)%60, (millis/1000)%60, sep, millis%1000)
}

func vttTimestamp(seconds float64) string { return clockMillis(seconds, '.') }

func srtTimestamp(seconds float64) string { return clockMillis(seconds, ',') }
