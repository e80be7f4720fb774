package uat978

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// AttributeLen is the size of the attribute header preceding each frame's
// sample buffer on the input stream.
const AttributeLen = 30

// Frame kinds as they appear in the attribute header.
const (
	KindFISB = 'F'
	KindADSB = 'A'
)

// Attributes are the parsed fields of a frame's attribute header. The
// header is a dot-separated ASCII string,
//
//	<secs>.<usec>.<kind>.<strength>.<syncerrs>
//
// padded to exactly AttributeLen bytes; fields past the fifth are
// padding and ignored.
type Attributes struct {
	// Raw is the header exactly as received. It names dump files and is
	// echoed on failure comment lines.
	Raw string
	// Time is the capture time rendered as seconds.milliseconds.
	Time string
	// Timestamp is the capture time as a time value.
	Timestamp time.Time
	// Kind is the frame kind, KindFISB or KindADSB.
	Kind byte
	// Signal is the signal strength magnitude scaled to units.
	Signal float64
	// SignalText is Signal rendered for output, always with a decimal
	// point.
	SignalText string
	// SyncErrors is the sync-word error count, carried as received.
	SyncErrors string
}

// ParseAttributes parses an attribute header. The header is trusted
// upstream data; a header that does not parse is reported as an error
// rather than repaired.
func ParseAttributes(raw string) (Attributes, error) {
	fields := strings.Split(raw, ".")
	if len(fields) < 5 {
		return Attributes{}, errors.Errorf("uat978.ParseAttributes: invalid header %q; expected at least 5 dot-separated fields, got %d", raw, len(fields))
	}

	secs, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Attributes{}, errors.Wrapf(err, "uat978.ParseAttributes: invalid seconds in header %q", raw)
	}
	usec, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Attributes{}, errors.Wrapf(err, "uat978.ParseAttributes: invalid microseconds in header %q", raw)
	}
	millis := fields[1]
	if len(millis) > 3 {
		millis = millis[:3]
	}

	kind := byte(KindADSB)
	if fields[2] == "F" {
		kind = KindFISB
	}

	strength, err := strconv.Atoi(fields[3])
	if err != nil {
		return Attributes{}, errors.Wrapf(err, "uat978.ParseAttributes: invalid signal strength in header %q", raw)
	}
	signal := math.Round(float64(strength)/1e6*100) / 100

	return Attributes{
		Raw:        raw,
		Time:       fields[0] + "." + millis,
		Timestamp:  time.Unix(secs, usec*int64(time.Microsecond)),
		Kind:       kind,
		Signal:     signal,
		SignalText: formatSignal(signal),
		SyncErrors: fields[4],
	}, nil
}

// formatSignal renders a signal strength with the shortest decimal form
// that still carries a decimal point.
func formatSignal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
