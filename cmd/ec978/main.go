// ec978 error-corrects FIS-B and ADS-B frames demodulated from the
// 978 MHz UAT band.
//
// It reads attribute/sample frame pairs on standard input, usually piped
// from the demodulator, and writes one line per corrected frame to
// standard output. With -re it instead reprocesses a directory of saved
// .i32 sample dumps.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/uatradio/uat978"
)

var (
	// flagFailedFISB prints failed FIS-B frame information as a comment.
	flagFailedFISB bool
	// flagFailedADSB prints failed ADS-B frame information as a comment.
	flagFailedADSB bool
	// flagLowestLevels reports new per-kind lowest decode levels.
	flagLowestLevels bool
	// flagNoBZFB disables forcing block-zero fixed bits.
	flagNoBZFB bool
	// flagNoFTZ disables trailing-zero repair.
	flagNoFTZ bool
	// flagPartial appends a partial decode comment to ADS-B lines.
	flagPartial bool
	// flagF6B holds whitespace-separated hex candidates for the first
	// six bytes of FIS-B block 0.
	flagF6B string
	// flagSaveErrors is the directory failed sample buffers are saved to.
	flagSaveErrors string
	// flagReprocess is a directory of .i32 dumps to reprocess instead of
	// reading standard input.
	flagReprocess string
)

func init() {
	flag.BoolVar(&flagFailedFISB, "ff", false, "Print failed FIS-B frame information as a comment.")
	flag.BoolVar(&flagFailedADSB, "fa", false, "Print failed ADS-B frame information as a comment.")
	flag.BoolVar(&flagLowestLevels, "ll", false, "Print lowest FIS-B and ADS-B decode levels.")
	flag.BoolVar(&flagNoBZFB, "nobzfb", false, "Don't force block zero fixed bits.")
	flag.BoolVar(&flagNoFTZ, "noftz", false, "Don't fix trailing zeros.")
	flag.BoolVar(&flagPartial, "apd", false, "Do a partial decode of ADS-B frames.")
	flag.StringVar(&flagF6B, "f6b", "", "Hex strings of the first 6 bytes of block zero.")
	flag.StringVar(&flagSaveErrors, "se", "", "Directory to save failed frame samples to.")
	flag.StringVar(&flagReprocess, "re", "", "Directory of .i32 dumps to reprocess.")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: ec978 [OPTION]...")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Error correct FIS-B and ADS-B frames read from standard input.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	cfg := uat978.Default()
	cfg.ShowFailedFISB = flagFailedFISB
	cfg.ShowFailedADSB = flagFailedADSB
	cfg.ShowLowestLevels = flagLowestLevels
	cfg.BlockZeroFixedBits = !flagNoBZFB
	cfg.FixTrailingZeros = !flagNoFTZ
	cfg.PartialDecode = flagPartial
	cfg.ErrorDir = flagSaveErrors

	if flagF6B != "" {
		prefixes, err := parsePrefixes(flagF6B)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg.Prefixes = prefixes
	}

	// Leave cleanly on interrupt; standard output is unbuffered so every
	// completed line is already flushed.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	if flagReprocess != "" {
		// Reprocessing always reports failures and never re-saves them.
		cfg.ShowFailedFISB = true
		cfg.ShowFailedADSB = true
		cfg.ErrorDir = ""
		if err := reprocess(flagReprocess, cfg); err != nil {
			log.Fatalln(err)
		}
		return
	}

	d := uat978.NewDecoder(os.Stdout, os.Stderr, cfg)
	if err := d.Run(bufio.NewReader(os.Stdin)); err != nil {
		log.Fatalf("%+v", err)
	}
}

// parsePrefixes parses the -f6b argument: one or more 12-digit hex
// strings separated by whitespace.
func parsePrefixes(arg string) ([][6]byte, error) {
	var prefixes [][6]byte
	for _, s := range strings.Fields(arg) {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, errors.Wrapf(err, "illegal hex for -f6b %q", s)
		}
		if len(b) != 6 {
			return nil, errors.Errorf("-f6b hex string %q must be 12 digits", s)
		}
		var p [6]byte
		copy(p[:], b)
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}

// reprocess runs every .i32 dump in dir through the decoder, parsing
// each frame's attributes back out of its file name.
func reprocess(dir string, cfg uat978.Config) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.i32"))
	if err != nil {
		return errors.Wrap(err, "reprocess")
	}
	sort.Strings(paths)

	d := uat978.NewDecoder(os.Stdout, os.Stderr, cfg)
	for _, path := range paths {
		attr, err := uat978.ParseAttributes(filepath.Base(path))
		if err != nil {
			log.Println(err)
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Println(err)
			continue
		}
		n := uat978.PacketLengthADSB
		if attr.Kind == uat978.KindFISB {
			n = uat978.PacketLengthFISB
		}
		if len(raw) < n {
			log.Printf("%s: truncated dump; expected %d bytes, got %d", path, n, len(raw))
			continue
		}
		d.Process(attr, raw[:n])
	}
	return nil
}
