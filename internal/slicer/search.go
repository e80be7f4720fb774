package slicer

import "github.com/uatradio/uat978/rs"

// ShiftTable lists the resampling weights in decreasing order of how
// often each one produces the first successful decode, measured over a
// large corpus of received frames. Weight 0 leads because well over 99%
// of strong-signal words decode within the first two tries; finer than
// 5% granularity was found not to help.
var ShiftTable = [...]float64{
	0, -0.75, 0.75, -0.50, 0.50, -0.25,
	0.25, -0.85, 0.40, 0.65, -0.30, 0.80, -0.05, 0.05, -0.90, 0.90,
	-0.10, 0.10, 0.85, -0.15, 0.15, -0.80, -0.65, -0.35, 0.35,
	-0.70, 0.70, 0.30, -0.40, -0.60, 0.60, -0.20, 0.20, -0.45,
	0.45, -0.55, 0.55,
}

// NoHint disables the try-first shift hint of Search. It is outside the
// (-1, 1) weight range and never appears in ShiftTable.
const NoHint = 2

// An Attempt binds the shift search to one Reed-Solomon code and the
// optional overrides applied while a word is being rebuilt.
type Attempt struct {
	// Code checks and corrects each candidate word.
	Code *rs.Code
	// Override, when non-nil, is applied to the shifted soft samples
	// before slicing. Used to force the fixed header bits of FIS-B
	// block 0.
	Override func(soft []float64)
	// Prefixes, when non-empty, are candidate values for the first six
	// bytes of the packed word; each one is tried in turn against the
	// decoder. Used when only a known set of ground stations is heard.
	Prefixes [][6]byte
}

// Search runs the slice-and-decode loop over the shift table and returns
// the first successful decode. tryFirst, unless NoHint, is a shift to
// try before walking the table (and to skip when the walk reaches it);
// callers feed back the shift that worked for the previous word, which
// almost always succeeds immediately.
//
// On success the corrected message, the symbol error count, and the
// winning shift are returned. On failure ok is false.
func (a Attempt) Search(w Word, tryFirst float64) (msg []byte, ecount int, shift float64, ok bool) {
	if tryFirst != NoHint {
		soft := w.Shifted(tryFirst)
		if a.Override != nil {
			a.Override(soft)
		}
		if msg, ecount, ok = a.decode(soft); ok {
			return msg, ecount, tryFirst, true
		}
	}
	for _, s := range ShiftTable {
		if s == tryFirst {
			continue
		}
		soft := w.Shifted(s)
		if a.Override != nil {
			a.Override(soft)
		}
		if msg, ecount, ok = a.decode(soft); ok {
			return msg, ecount, s, true
		}
	}
	return nil, 0, NoHint, false
}

// decode packs one shifted word and runs it through the code, sweeping
// the prefix candidates when configured.
func (a Attempt) decode(soft []float64) (msg []byte, ecount int, ok bool) {
	word := Pack(soft)
	if len(a.Prefixes) == 0 {
		msg, ecount, err := a.Code.Decode(word)
		if err != nil {
			return nil, 0, false
		}
		return msg, ecount, true
	}
	for _, p := range a.Prefixes {
		copy(word[:6], p[:])
		msg, ecount, err := a.Code.Decode(word)
		if err == nil {
			return msg, ecount, true
		}
	}
	return nil, 0, false
}
