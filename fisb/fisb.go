// Package fisb error-corrects FIS-B Ground Uplink frames.
//
// A Ground Uplink frame carries 432 payload bytes in six byte-interleaved
// Reed-Solomon blocks of 72 data and 20 parity bytes each. A frame is
// decoded successfully only when all six blocks are recovered, either by
// Reed-Solomon correction or because the frame's inner application data
// ends early and the remaining blocks are known to be zero filler.
//
// When a block resists the plain shift search, a cascade of recovery
// steps is tried in order of cheapness: forcing the fixed header bits of
// block 0, substituting known ground-station prefixes, repairing runs of
// trailing zero bits, and finally re-running every unsolved block at the
// alternate sample offset.
package fisb

import (
	"fmt"
	"io"

	"github.com/uatradio/uat978/internal/slicer"
	"github.com/uatradio/uat978/rs"
)

// Frame layout.
const (
	// Blocks is the number of Reed-Solomon blocks per frame.
	Blocks = slicer.FisbBlocks
	// BlockData is the number of payload bytes per block.
	BlockData = 72
	// PayloadBytes is the size of a fully decoded frame payload.
	PayloadBytes = Blocks * BlockData
	// SampleCount is the expected length of a frame's sample buffer.
	SampleCount = slicer.FisbSamples
)

// Error-count sentinels used in the per-block counts of a Result. These
// exist for the output format only; they never drive control flow.
const (
	// ErrFailed marks a block that was tried and could not be corrected.
	ErrFailed = 98
	// ErrUntried marks a block no correction was attempted on.
	ErrUntried = 99
)

// Soft-sample magnitudes substituted for bits whose value is known
// before slicing.
const (
	forcedOne  = 10000
	forcedZero = -10000
)

// A Result is the outcome of decoding one frame.
type Result struct {
	// Decoded reports whether all six blocks were recovered.
	Decoded bool
	// Payload is the 432-byte frame payload; nil unless Decoded.
	Payload []byte
	// Errs holds the Reed-Solomon symbol error count per block, or one
	// of the ErrFailed/ErrUntried sentinels.
	Errs [Blocks]int
}

// A Decoder error-corrects FIS-B frames. The zero value disables every
// recovery extra; the dispatcher enables them from its configuration.
type Decoder struct {
	// FixedBits enables forcing the invariant header bits of block 0
	// before slicing.
	FixedBits bool
	// RepairZeros enables trailing-zero run repair on failed blocks.
	RepairZeros bool
	// Prefixes are known candidate values for the first six bytes of
	// block 0 (the ground station position); empty disables the sweep.
	Prefixes [][6]byte
	// Diag, when non-nil, receives diagnostic notes.
	Diag io.Writer

	warned47 bool
}

// block is the decode state of a single Reed-Solomon block within one
// frame.
type block struct {
	data  []byte // 72 payload bytes when ok.
	errs  int    // symbol errors corrected; valid when tried.
	ok    bool
	tried bool
}

// Decode error-corrects one frame from its raw sample buffer, first at
// the nominal sample offset and, for any block still unsolved, at the
// following one.
func (d *Decoder) Decode(samples []int32) Result {
	var blocks [Blocks]block

	if !d.pass(samples, 1, &blocks) {
		d.pass(samples, 2, &blocks)
	}
	return result(&blocks)
}

// pass runs the per-block recovery loop at one sample offset and reports
// whether the whole frame was recovered.
func (d *Decoder) pass(samples []int32, offset int, blocks *[Blocks]block) bool {
	plain := slicer.Attempt{Code: rs.FISB}

	// The shift that decoded the previous block is tried first on the
	// next; on a stable channel this collapses the table walk to a
	// single attempt per block.
	tryFirst := float64(slicer.NoHint)

	for b := 0; b < Blocks; b++ {
		if blocks[b].ok {
			continue
		}
		w := slicer.ExtractFisb(samples, offset, b)

		msg, ecount, shift, ok := plain.Search(w, tryFirst)
		blocks[b].tried = true
		if ok {
			tryFirst = shift
			d.accept(&blocks[b], b, msg, ecount)
			// Empty and near-empty frames are very common; detecting the
			// terminator now skips the remaining five blocks entirely.
			if b == 0 && terminate(blocks) {
				return true
			}
			continue
		}
		blocks[b].errs = ErrFailed

		if b == 0 && (d.FixedBits || len(d.Prefixes) > 0) {
			tricks := slicer.Attempt{Code: rs.FISB, Prefixes: d.Prefixes}
			if d.FixedBits {
				tricks.Override = forceFixedBits
			}
			if msg, ecount, shift, ok := tricks.Search(w, slicer.NoHint); ok {
				tryFirst = shift
				d.accept(&blocks[0], 0, msg, ecount)
				if terminate(blocks) {
					return true
				}
				continue
			}
		}

		if d.RepairZeros {
			if repaired, found := repairZeros(w.On); found {
				rw := slicer.Word{On: repaired, Before: w.Before, After: w.After}
				if msg, ecount, shift, ok := plain.Search(rw, tryFirst); ok {
					tryFirst = shift
					d.accept(&blocks[b], b, msg, ecount)
					if terminate(blocks) {
						return true
					}
					continue
				}
			}
		}

		// This block is beyond repair; later blocks alone cannot
		// complete the frame, so stop the loop here.
		break
	}

	for b := range blocks {
		if !blocks[b].ok {
			// One last chance: a terminator inside the blocks decoded so
			// far still accounts for every remaining block.
			return terminate(blocks)
		}
	}
	return true
}

// accept records a decoded block and, for block 0, checks the
// "position valid" header bit. The standard mandates it be 1 but ground
// stations transmit 0 in the field, so the slicer leaves it alone; a
// station that does set it is worth a note.
func (d *Decoder) accept(bl *block, num int, msg []byte, ecount int) {
	bl.data = msg
	bl.errs = ecount
	bl.ok = true
	if num == 0 && !d.warned47 && msg[5]&0x01 != 0 {
		d.warned47 = true
		if d.Diag != nil {
			fmt.Fprintln(d.Diag, "fisb: block 0 decoded with position-valid bit set")
		}
	}
}

// forceFixedBits pins the Ground Uplink header bits that never vary on
// air: UTC-coupled and App-Data-Valid are always 1, the surrounding
// reserved bits (including UAT Frame byte 2) always 0. Bit 47, position
// valid, is deliberately not forced; see Decoder.accept.
func forceFixedBits(soft []float64) {
	soft[48] = forcedOne  // UTC coupled
	soft[49] = forcedZero // reserved
	soft[50] = forcedOne  // app data valid
	for _, i := range [...]int{60, 61, 62, 63, 73, 74, 75} {
		soft[i] = forcedZero // reserved
	}
}

// result flattens the per-block state into the caller-facing form.
func result(blocks *[Blocks]block) Result {
	var r Result
	r.Decoded = true
	for i := range blocks {
		switch {
		case blocks[i].tried:
			r.Errs[i] = blocks[i].errs
		default:
			r.Errs[i] = ErrUntried
		}
		if !blocks[i].ok {
			r.Decoded = false
		}
	}
	if r.Decoded {
		r.Payload = make([]byte, 0, PayloadBytes)
		for i := range blocks {
			r.Payload = append(r.Payload, blocks[i].data...)
		}
	}
	return r
}
