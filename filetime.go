package provision

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// Seconds between the Windows FILETIME epoch (1601-01-01) and the Unix
	// epoch (1970-01-01).
	// Reference: https://learn.microsoft.com/en-us/windows/win32/sysinfo/file-times
	filetimeEpochOffsetSeconds int64 = 11644473600

	// 100-nanosecond intervals per second.
	filetimeTicksPerSecond int64 = 10000000

	secondsPerDay int64 = 86400

	// AccountExpiresNever is the accountExpires value for accounts that do
	// not expire. A value of 0 has the same meaning.
	// Reference: https://learn.microsoft.com/en-us/windows/win32/adschema/a-accountexpires
	AccountExpiresNever int64 = 0x7FFFFFFFFFFFFFFF
)

// expirationDateLayout accepts 1- and 2-digit day and month, e.g. 31/12/2024
// and 1/1/2025.
const expirationDateLayout = "2/1/2006"

// AccountExpiresFromDate converts a DD/MM/YYYY calendar date into the
// Active Directory accountExpires representation: the number of
// 100-nanosecond intervals since 1601-01-01T00:00:00Z.
//
// One day is added to the given date so that the account expires at the end
// of the stated day, i.e. at the start of the day after it.
//
// Returns ErrInvalidDate if the input is not a parseable calendar date.
func AccountExpiresFromDate(date string) (int64, error) {
	t, err := time.Parse(expirationDateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a DD/MM/YYYY date", ErrInvalidDate, date)
	}

	unix := t.UTC().Unix()
	return (unix + filetimeEpochOffsetSeconds + secondsPerDay) * filetimeTicksPerSecond, nil
}

// convertAccountExpires converts a point in time to the accountExpires
// string form consumed by the directory. A nil target means the account
// never expires.
func convertAccountExpires(target *time.Time) string {
	if target == nil {
		return strconv.FormatInt(AccountExpiresNever, 10)
	}

	base := time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)
	return strconv.FormatInt(target.Sub(base).Nanoseconds()/100, 10)
}
