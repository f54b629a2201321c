package machine

import "strconv"

// Status is a command result code as reported to the sender.
type Status uint8

// Parser and system status codes.
const (
	StatusOK                          Status = 0
	StatusExpectedCommandLetter       Status = 1
	StatusBadNumberFormat             Status = 2
	StatusInvalidStatement            Status = 3
	StatusNegativeValue               Status = 4
	StatusSettingDisabled             Status = 5
	StatusIdleError                   Status = 8
	StatusSystemGClock                Status = 9
	StatusOverflow                    Status = 11
	StatusLineLengthExceeded          Status = 14
	StatusReset                       Status = 18
	StatusGcodeUnsupportedCommand     Status = 20
	StatusGcodeModalGroupViolation    Status = 21
	StatusGcodeCommandValueNotInteger Status = 23
	StatusGcodeWordRepeated           Status = 25
	StatusGcodeValueWordMissing       Status = 28
	StatusGcodeUnusedWords            Status = 36
	StatusGcodeIllegalToolTableEntry  Status = 38
)

// File system status codes.
const (
	StatusFsMountError       Status = 60
	StatusFileReadError      Status = 61
	StatusFsFailedOpenDir    Status = 62
	StatusFsDirNotFound      Status = 63
	StatusFileEmpty          Status = 64
	StatusFsNotMounted       Status = 65
	StatusFsReadOnly         Status = 66
	StatusFsFormatError      Status = 67
	StatusFileOpenFailed     Status = 68
	StatusMacroStackOverflow Status = 69
)

// StatusUnhandled tells a hook chain that the handler did not act on the request.
// It is never reported to the sender.
const StatusUnhandled Status = 255

var statusText = map[Status]string{
	StatusOK:                          "ok",
	StatusExpectedCommandLetter:       "expected command letter",
	StatusBadNumberFormat:             "bad number format",
	StatusInvalidStatement:            "invalid statement",
	StatusNegativeValue:               "value < 0",
	StatusSettingDisabled:             "setting disabled",
	StatusIdleError:                   "not idle",
	StatusSystemGClock:                "system busy or locked",
	StatusOverflow:                    "line overflow",
	StatusLineLengthExceeded:          "line length exceeded",
	StatusReset:                       "reset asserted",
	StatusGcodeUnsupportedCommand:     "unsupported command",
	StatusGcodeModalGroupViolation:    "modal group violation",
	StatusGcodeCommandValueNotInteger: "value not an integer",
	StatusGcodeWordRepeated:           "word repeated",
	StatusGcodeValueWordMissing:       "value word missing",
	StatusGcodeUnusedWords:            "unused words",
	StatusGcodeIllegalToolTableEntry:  "illegal tool table entry",
	StatusFsMountError:                "mount failed",
	StatusFileReadError:               "file delete failed",
	StatusFsFailedOpenDir:             "directory listing failed",
	StatusFsDirNotFound:               "directory not found",
	StatusFileEmpty:                   "file empty",
	StatusFsNotMounted:                "not mounted",
	StatusFsReadOnly:                  "file system is read only",
	StatusFsFormatError:               "format failed",
	StatusFileOpenFailed:              "file open failed",
	StatusMacroStackOverflow:          "macro stack overflow",
	StatusUnhandled:                   "unhandled",
}

// String returns the description of the status.
func (s Status) String() string {
	if text, ok := statusText[s]; ok {
		return text
	}

	return "status " + strconv.Itoa(int(s))
}

// OK reports whether s is StatusOK.
func (s Status) OK() bool {
	return s == StatusOK
}
