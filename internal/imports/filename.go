package imports

import (
	"regexp"
	"strconv"

	"bsm-backend/internal/records"
)

// Upload filenames carry the target period in one of two shapes:
// "sample_data_2025-01.xlsx" / "prefix_2024_12.xlsx" (separator before the
// year required) or "2023年1月.xlsx". Range validation happens at import
// time, not here.
var (
	separatedPeriodRe = regexp.MustCompile(`[_-](\d{4})[-_](\d{1,2})\.[A-Za-z]+$`)
	chinesePeriodRe   = regexp.MustCompile(`(\d{4})年(\d{1,2})月`)
)

// ExtractPeriod pulls the snapshot period out of an upload filename. The
// second return is false when no period pattern matches.
func ExtractPeriod(filename string) (records.Period, bool) {
	for _, re := range []*regexp.Regexp{separatedPeriodRe, chinesePeriodRe} {
		if m := re.FindStringSubmatch(filename); m != nil {
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			return records.Period{Year: year, Month: month}, true
		}
	}
	return records.Period{}, false
}
