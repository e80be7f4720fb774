// uat2wav converts raw .i32 sample dumps saved by ec978 into WAV files,
// so a failed frame can be inspected in an ordinary audio editor.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"
)

// sampleRate is the demodulator's output rate: the 1.041667 MHz UAT
// symbol rate sampled twice per symbol.
const sampleRate = 2083333

// flagForce specifies if file overwriting should be forced, when a WAV
// file of the same name already exists.
var flagForce bool

func init() {
	flag.BoolVar(&flagForce, "f", false, "Force overwrite.")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: uat2wav [OPTION]... FILE.i32...")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Convert raw UAT sample dumps to WAV format.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	for _, path := range flag.Args() {
		if err := uat2wav(path); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

// uat2wav converts the provided sample dump to a WAV file.
func uat2wav(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	samples := make([]int, len(raw)/4)
	peak := 1
	for i := range samples {
		v := int(int32(binary.LittleEndian.Uint32(raw[i*4:])))
		samples[i] = v
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}

	// Scale to 16-bit PCM, leaving a little headroom.
	for i, v := range samples {
		samples[i] = v * 32000 / peak
	}

	wavPath := pathutil.TrimExt(path) + ".wav"
	if !flagForce && osutil.Exists(wavPath) {
		return errors.Errorf("WAV file %q already present; use -f flag to force overwrite", wavPath)
	}
	f, err := os.Create(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(enc.Close())
}
