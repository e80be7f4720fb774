// Package slicer turns demodulated soft samples into hard byte words.
//
// The upstream demodulator samples at twice the symbol rate, so the
// on-time samples sit at every other index and are flanked by the
// previous and next sample. Resampling phase error is compensated for by
// blending each on-time sample with one of its neighbours at a small set
// of empirically ordered weights before slicing to hard bits.
package slicer

import (
	"bytes"

	"github.com/icza/bitio"
)

// FIS-B ground uplink frame layout.
const (
	// FisbBlocks is the number of Reed-Solomon blocks per frame.
	FisbBlocks = 6
	// FisbBlockBytes is the codeword size of one block (72 data + 20 parity).
	FisbBlockBytes = 92
	// FisbBlockBits is the number of soft bits per deinterleaved block.
	FisbBlockBits = FisbBlockBytes * 8
	// FisbSamples is the sample count of a FIS-B frame buffer: 4416 bits
	// at 2 samples/bit, plus one sample before and two after.
	FisbSamples = FisbBlocks*FisbBlockBits*2 + 3
)

// ADS-B frame layout.
const (
	// AdsbShortBytes is the codeword size of a short ADS-B packet.
	AdsbShortBytes = 30
	// AdsbLongBytes is the codeword size of a long ADS-B packet.
	AdsbLongBytes = 48
	// AdsbSamples is the sample count of an ADS-B frame buffer, sized for
	// a long packet: 384 bits at 2 samples/bit, plus one sample before
	// and two after.
	AdsbSamples = AdsbLongBytes*8*2 + 3
)

// A Word holds the soft-sample view of one candidate codeword: the
// on-time samples and their one-sample-early and one-sample-late
// neighbours. All three slices have one entry per bit.
type Word struct {
	On     []int32
	Before []int32
	After  []int32
}

// ExtractFisb deinterleaves the soft bits of FIS-B block number block
// (0..5) out of a frame's sample buffer. offset selects the bit
// interpretation: 1 is the position the sync word was matched at, 2 the
// following sample.
//
// Blocks are byte-interleaved with an 8-byte stride: byte j of block i
// starts at sample offset + 2*(8*i + 48*j) and occupies 16 samples at
// stride 2.
func ExtractFisb(samples []int32, offset, block int) Word {
	w := Word{
		On:     make([]int32, FisbBlockBits),
		Before: make([]int32, FisbBlockBits),
		After:  make([]int32, FisbBlockBits),
	}
	ptr := offset + 8*block*2
	for i := 0; i < FisbBlockBytes; i++ {
		for j := 0; j < 8; j++ {
			w.On[i*8+j] = samples[ptr+2*j]
			w.Before[i*8+j] = samples[ptr+2*j-1]
			w.After[i*8+j] = samples[ptr+2*j+1]
		}
		// Skip to this block's next byte: 5 interleaved bytes away.
		ptr += 96
	}
	return w
}

// ExtractAdsb extracts the soft bits of an ADS-B packet from a frame's
// sample buffer. ADS-B packets are not interleaved; short selects the
// 30-byte rather than the 48-byte codeword.
func ExtractAdsb(samples []int32, offset int, short bool) Word {
	numBytes := AdsbLongBytes
	if short {
		numBytes = AdsbShortBytes
	}
	n := numBytes * 8
	w := Word{
		On:     make([]int32, n),
		Before: make([]int32, n),
		After:  make([]int32, n),
	}
	for i := 0; i < n; i++ {
		w.On[i] = samples[offset+2*i]
		w.Before[i] = samples[offset+2*i-1]
		w.After[i] = samples[offset+2*i+1]
	}
	return w
}

// Shifted returns the soft samples resampled toward a neighbour by the
// signed weight amount. A positive amount blends the one-sample-early
// neighbour, a negative amount the one-sample-late neighbour; the
// magnitude is the blend fraction. Amount 0 returns the on-time samples
// unblended.
func (w Word) Shifted(amount float64) []float64 {
	soft := make([]float64, len(w.On))
	switch {
	case amount == 0:
		for i, b := range w.On {
			soft[i] = float64(b)
		}
	case amount > 0:
		for i, b := range w.On {
			soft[i] = (float64(b) + amount*float64(w.Before[i])) / 2
		}
	default:
		for i, b := range w.On {
			soft[i] = (float64(b) - amount*float64(w.After[i])) / 2
		}
	}
	return soft
}

// Pack hard-slices the soft samples (positive means bit 1) and packs
// them MSB-first into bytes.
func Pack(soft []float64) []byte {
	buf := new(bytes.Buffer)
	bw := bitio.NewWriter(buf)
	for _, v := range soft {
		bw.WriteBool(v > 0)
	}
	bw.Close()
	return buf.Bytes()
}
