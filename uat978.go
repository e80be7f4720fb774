// Package uat978 error-corrects demodulated 978 MHz UAT transmissions.
//
// The upstream demodulator feeds the decoder a stream of candidate
// frames, each a 30-byte attribute header followed by a fixed-size
// buffer of signed 32-bit soft samples at twice the symbol rate. Two
// frame types share the stream: FIS-B Ground Uplink frames and ADS-B
// air-to-air packets. Each frame is sliced to hard bits under several
// neighbour-weighted resampling hypotheses, error-corrected with the
// appropriate Reed-Solomon code, and run through a cascade of recovery
// strategies when the first decode fails. Corrected frames are emitted
// one per line as hex with a short comment trailer.
//
// The decoder processes one frame at a time; frames are independent and
// no state other than diagnostics carries across them.
package uat978

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/uatradio/uat978/adsb"
	"github.com/uatradio/uat978/fisb"
)

// Sample buffer sizes in bytes, as sent by the demodulator: one int32
// per sample, two samples per bit, one sample before the frame and two
// after.
const (
	PacketLengthFISB = fisb.SampleCount * 4
	PacketLengthADSB = adsb.SampleCount * 4
)

// Config collects the decode options established at startup. The zero
// value decodes with every recovery extra disabled; Default returns the
// normal operating set.
type Config struct {
	// ShowFailedFISB and ShowFailedADSB emit a #FAILED comment line for
	// frames that exhaust every recovery attempt.
	ShowFailedFISB bool
	ShowFailedADSB bool
	// ShowLowestLevels reports each new per-kind minimum signal
	// strength on the diagnostic stream.
	ShowLowestLevels bool
	// BlockZeroFixedBits enables forcing the invariant header bits of
	// FIS-B block 0.
	BlockZeroFixedBits bool
	// FixTrailingZeros enables trailing-zero run repair on failed FIS-B
	// blocks.
	FixTrailingZeros bool
	// Prefixes are known candidate values for the first six bytes of
	// FIS-B block 0.
	Prefixes [][6]byte
	// PartialDecode appends a compact ADS-B summary comment to each
	// decoded ADS-B line.
	PartialDecode bool
	// ErrorDir, when set together with the matching ShowFailed flag,
	// receives the raw sample buffer of each failed frame.
	ErrorDir string
}

// Default returns the normal operating configuration: both block-zero
// fixed bits and trailing-zero repair enabled, everything else off.
func Default() Config {
	return Config{
		BlockZeroFixedBits: true,
		FixTrailingZeros:   true,
	}
}

// A Decoder drives the per-frame decode pipeline and writes output
// lines. Output order follows input order; a failed frame never reorders
// later ones.
type Decoder struct {
	cfg  Config
	out  io.Writer
	diag io.Writer
	fisb fisb.Decoder

	// Lowest signal strength seen per kind, for diagnostics only.
	lowFISB, lowShort, lowLong float64
}

// NewDecoder returns a decoder writing output lines to out and
// diagnostics to diag.
func NewDecoder(out, diag io.Writer, cfg Config) *Decoder {
	const neverSeen = 1e9
	if diag == nil {
		diag = io.Discard
	}
	return &Decoder{
		cfg:  cfg,
		out:  out,
		diag: diag,
		fisb: fisb.Decoder{
			FixedBits:   cfg.BlockZeroFixedBits,
			RepairZeros: cfg.FixTrailingZeros,
			Prefixes:    cfg.Prefixes,
			Diag:        diag,
		},
		lowFISB:  neverSeen,
		lowShort: neverSeen,
		lowLong:  neverSeen,
	}
}

// Run reads frames from r until end of input, decoding each one as it
// arrives. A truncated final frame is treated as end of input; both
// cases return nil.
func (d *Decoder) Run(r io.Reader) error {
	hdr := make([]byte, AttributeLen)
	for {
		if _, err := io.ReadFull(r, hdr); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return errors.Wrap(err, "uat978: read attribute header")
		}
		attr, err := ParseAttributes(string(hdr))
		if err != nil {
			return err
		}

		n := PacketLengthADSB
		if attr.Kind == KindFISB {
			n = PacketLengthFISB
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(r, raw); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return errors.Wrap(err, "uat978: read sample buffer")
		}

		d.Process(attr, raw)
	}
}

// Process decodes a single frame from its raw little-endian sample
// buffer and emits the resulting output, if any. It is exported so
// saved .i32 dumps can be re-run through the decoder.
func (d *Decoder) Process(attr Attributes, raw []byte) {
	samples := toSamples(raw)

	if attr.Kind == KindFISB {
		res := d.fisb.Decode(samples)
		if res.Decoded {
			d.reportLowest("FIS-B    ", &d.lowFISB, attr)
			fmt.Fprintln(d.out, formatFISB(res, attr))
			return
		}
		errs := fisbErrString(res.Errs)
		if d.cfg.ShowFailedFISB {
			fmt.Fprintf(d.out, "#FAILED-FIS-B %s/%s ss=%s t=%s %s\n", attr.SyncErrors, errs, attr.SignalText, attr.Time, attr.Raw)
			d.dump(attr, errs, raw)
		}
		return
	}

	res := adsb.Decode(samples)
	if res.Decoded {
		if res.Short {
			d.reportLowest("ADS-B (S)", &d.lowShort, attr)
		} else {
			d.reportLowest("ADS-B (L)", &d.lowLong, attr)
		}
		partial := ""
		if d.cfg.PartialDecode {
			partial = adsb.Partial(res.Payload, attr.Timestamp)
		}
		fmt.Fprintln(d.out, formatADSB(res, attr, partial))
		return
	}
	if d.cfg.ShowFailedADSB {
		fmt.Fprintf(d.out, "#FAILED-ADS-B %s/%d ss=%s t=%s %s\n", attr.SyncErrors, res.Errs, attr.SignalText, attr.Time, attr.Raw)
		d.dump(attr, "", raw)
	}
}

// reportLowest prints a diagnostic note when a decode succeeds at a
// lower signal strength than any before it. Useful for tuning the
// demodulator's noise cutoff.
func (d *Decoder) reportLowest(kind string, lowest *float64, attr Attributes) {
	if !d.cfg.ShowLowestLevels || attr.Signal >= *lowest {
		return
	}
	*lowest = attr.Signal
	fmt.Fprintf(d.diag, "lowest %s signal: %s\n", kind, attr.SignalText)
}

// dump writes a failed frame's raw sample buffer to the error directory
// for later reprocessing. Write failures are reported and otherwise
// ignored.
func (d *Decoder) dump(attr Attributes, errs string, raw []byte) {
	if d.cfg.ErrorDir == "" {
		return
	}
	name := attr.Raw
	if errs != "" {
		name += "." + errs
	}
	path := filepath.Join(d.cfg.ErrorDir, name+".i32")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		fmt.Fprintf(d.diag, "uat978: can't write error dump: %v\n", err)
	}
}

// toSamples reinterprets a raw buffer as little-endian signed 32-bit
// samples.
func toSamples(raw []byte) []int32 {
	samples := make([]int32, len(raw)/4)
	for i := range samples {
		samples[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples
}
