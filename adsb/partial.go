package adsb

import (
	"fmt"
	"strings"
	"time"
)

// base40 maps the character codes of the 3-characters-per-word callsign
// encoding. Codes 37-39 appear on air but have no printable meaning.
var base40 = [40]string{
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
	" ", "", "x", "y",
}

// uplinkFeedback maps the 3-bit uplink feedback code to the number of
// ground uplink packets the aircraft received on the reported data
// channel in the last 32 seconds.
var uplinkFeedback = [8]string{
	"0", "1-13", "14-21", "22-25", "26-28", "29-30", "31", "32",
}

// dataChannel maps a UAT data channel (1-32) to the power class and
// TIS-B site ID of the station that owns it.
var dataChannel = [32]string{
	"H15", "H14", "H13", "M12", "M11", "M10", "L8", "L5|S3",
	"H15", "H14", "H13", "M12", "M11", "L9", "L7", "L6|S2",
	"H15", "H14", "H13", "M12", "M10", "L9", "L7", "L6|S1",
	"H15", "H14", "H13", "M11", "M10", "L8", "L6", "S4",
}

// Partial renders a compact one-line summary of a decoded payload,
// appended to the output line as a comment when partial decoding is
// enabled. The format is
//
//	/<type code>.<address qualifier>.<address>/<category>.<callsign>/<altitude>/<source>
//
// where the callsign section appears only for type codes 1 and 3, the
// altitude is feet (`?` when unknown, `>101337.5` when above scale), and
// the source is `G` for a ground-relayed message or `A` for one sent
// directly by the aircraft, the latter optionally extended with the
// data channel and uplink feedback report.
//
// t is the capture time of the packet; it selects the data channel of
// the second for the uplink feedback report.
func Partial(payload []byte, t time.Time) string {
	ptc := payload[0] >> 3
	qualifier := payload[0] & 0x07

	var b strings.Builder
	fmt.Fprintf(&b, "/%d.%d.%02X%02X%02X", ptc, qualifier, payload[1], payload[2], payload[3])

	if ptc == 1 || ptc == 3 {
		// Emitter category and callsign share the base-40 field.
		cs := callsign(payload[17:23])
		if cs == "" {
			cs = " "
		}
		fmt.Fprintf(&b, "/%s.%s/", cs[:1], cs[1:])
	} else {
		b.WriteString("//")
	}

	coded := int(payload[10])<<4 | int(payload[11])>>4
	switch coded {
	case 0:
		b.WriteString("?/")
	case 4095:
		b.WriteString(">101337.5/")
	default:
		fmt.Fprintf(&b, "%d/", (coded-41)*25)
	}

	switch {
	case qualifier == 0 || qualifier == 1 || qualifier == 4 || qualifier == 5:
		// Sent directly by the aircraft; it may report how many ground
		// uplink packets it heard on the data channel of the second.
		feedback := payload[16] & 0x07
		if feedback == 0 {
			b.WriteString("A")
			break
		}
		t = t.UTC()
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		chan32 := int(t.Sub(midnight).Seconds()) % 32
		ch := 32 - chan32 + 1
		if ch == 33 {
			ch = 1
		}
		fmt.Fprintf(&b, "A%02d:%s:%s", ch, uplinkFeedback[feedback], dataChannel[ch-1])
	case (qualifier == 2 || qualifier == 3) && ptc <= 10:
		b.WriteString("G")
	}

	return b.String()
}

// callsign decodes six bytes holding three base-40 characters per
// big-endian word and strips trailing whitespace.
func callsign(words []byte) string {
	var b strings.Builder
	for i := 0; i < 6; i += 2 {
		v := int(words[i])<<8 | int(words[i+1])
		d := [3]int{v / 1600 % 40, v / 40 % 40, v % 40}
		for _, c := range d {
			b.WriteString(base40[c])
		}
	}
	return strings.TrimRight(b.String(), " ")
}
