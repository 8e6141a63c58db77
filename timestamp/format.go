package timestamp

import "time"

const (
	Layout     = "2006-01-02T15:04:05.000000Z"
	LogsLayout = "2006-01-02 15:04:05"
	//FileLayout is used in transmission file names for FIFO-ish ordering
	FileLayout = "20060102150405"
	//CrashLogLayout is used in crash log header block
	CrashLogLayout = time.RFC1123Z
)

func NowUTC() string {
	return Now().UTC().Format(Layout)
}

func ToISOFormat(t time.Time) string {
	return t.UTC().Format(Layout)
}
