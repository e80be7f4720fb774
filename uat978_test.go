package uat978

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uatradio/uat978/adsb"
	"github.com/uatradio/uat978/fisb"
	"github.com/uatradio/uat978/rs"
)

// modulate renders codeword bits into a sample buffer at ±1000 with
// consistent neighbours, leaving untouched samples at the zero level.
func modulate(samples []int32, cw []byte, stride func(g int) int) {
	for g := 0; g < len(cw)*8; g++ {
		v := int32(-1000)
		if cw[g/8]&(0x80>>(g%8)) != 0 {
			v = 1000
		}
		pos := 1 + 2*stride(g)
		samples[pos] = v
		samples[pos+1] = v
	}
	samples[0] = samples[1]
}

// adsbFrame returns the wire bytes of one ADS-B frame: attribute header
// plus little-endian samples carrying the codeword of msg.
func adsbFrame(t *testing.T, hdr string, code *rs.Code, msg []byte) []byte {
	t.Helper()
	cw, err := code.Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	samples := make([]int32, adsb.SampleCount)
	for i := range samples {
		samples[i] = -1000
	}
	modulate(samples, cw, func(g int) int { return g })
	return append([]byte(hdr), rawSamples(samples)...)
}

// fisbFrame returns the wire bytes of one FIS-B frame built from six
// block payloads.
func fisbFrame(t *testing.T, hdr string, msgs [fisb.Blocks][]byte) []byte {
	t.Helper()
	samples := make([]int32, fisb.SampleCount)
	for i := range samples {
		samples[i] = -1000
	}
	for i := 0; i < fisb.Blocks; i++ {
		cw, err := rs.FISB.Encode(msgs[i])
		if err != nil {
			t.Fatal(err)
		}
		block := i
		modulate(samples, cw, func(g int) int { return 8*block + 48*(g/8) + g%8 })
	}
	return append([]byte(hdr), rawSamples(samples)...)
}

// noiseFrame returns the wire bytes of an ADS-B frame that carries no
// decodable signal: strong samples in a period-3 pattern that slices to
// a word far from any codeword.
func noiseFrame(hdr string) []byte {
	frame := make([]byte, AttributeLen+PacketLengthADSB)
	copy(frame, hdr)
	for s := 0; s < PacketLengthADSB/4; s++ {
		v := int32(-700)
		if s%3 == 0 {
			v = 900
		}
		binary.LittleEndian.PutUint32(frame[AttributeLen+s*4:], uint32(v))
	}
	return frame
}

func rawSamples(samples []int32) []byte {
	raw := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(v))
	}
	return raw
}

func TestRunADSB(t *testing.T) {
	msg := make([]byte, adsb.ShortPayload)
	for i := range msg {
		msg[i] = byte(i)
	}
	msg[0] = 0x00
	in := adsbFrame(t, "1622222222.123456.A.1250000.00", rs.ADSBShort, msg)

	var out, diag bytes.Buffer
	d := NewDecoder(&out, &diag, Default())
	if err := d.Run(bytes.NewReader(in)); err != nil {
		t.Fatal(err)
	}
	want := "-" + hex.EncodeToString(msg) + ";rs=00/0;ss=1.25;t=1622222222.123\n"
	if out.String() != want {
		t.Errorf("output mismatch;\nexpected %q,\ngot      %q", want, out.String())
	}
}

func TestRunFISB(t *testing.T) {
	var msgs [fisb.Blocks][]byte
	var want []byte
	for i := range msgs {
		msgs[i] = make([]byte, fisb.BlockData)
		for j := range msgs[i] {
			msgs[i][j] = 0x80 | byte(i*7+j)&0x7F
		}
		want = append(want, msgs[i]...)
	}
	in := fisbFrame(t, "1622222222.123456.F.1250000.00", msgs)

	var out, diag bytes.Buffer
	d := NewDecoder(&out, &diag, Default())
	if err := d.Run(bytes.NewReader(in)); err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSuffix(out.String(), "\n")
	wantLine := "+" + hex.EncodeToString(want) + ";rs=00/00:00:00:00:00:00;ss=1.25;t=1622222222.123"
	if line != wantLine {
		t.Errorf("output mismatch;\nexpected %q,\ngot      %q", wantLine, line)
	}
}

// Two frames in, two lines out, in order.
func TestRunOrder(t *testing.T) {
	short := make([]byte, adsb.ShortPayload)
	long := make([]byte, adsb.LongPayload)
	long[0] = 0x01 << 3
	for i := 1; i < len(long); i++ {
		long[i] = byte(i)
	}
	in := append(
		adsbFrame(t, "1622222222.000001.A.1000000.00", rs.ADSBShort, short),
		adsbFrame(t, "1622222223.000002.A.2000000.00", rs.ADSBLong, long)...)

	var out, diag bytes.Buffer
	d := NewDecoder(&out, &diag, Default())
	if err := d.Run(bytes.NewReader(in)); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count mismatch; expected 2, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "t=1622222222.000") || !strings.HasSuffix(lines[1], "t=1622222223.000") {
		t.Errorf("order mismatch: %q", lines)
	}
}

func TestRunFailedComment(t *testing.T) {
	hdr := "1622222222.123456.A.1250000.00"
	frame := noiseFrame(hdr)

	cfg := Default()
	cfg.ShowFailedADSB = true
	var out, diag bytes.Buffer
	d := NewDecoder(&out, &diag, cfg)
	if err := d.Run(bytes.NewReader(frame)); err != nil {
		t.Fatal(err)
	}
	want := "#FAILED-ADS-B 00/98 ss=1.25 t=1622222222.123 " + hdr + "\n"
	if out.String() != want {
		t.Errorf("comment mismatch;\nexpected %q,\ngot      %q", want, out.String())
	}

	// Without the flag the frame is silently dropped.
	out.Reset()
	d = NewDecoder(&out, &diag, Default())
	if err := d.Run(bytes.NewReader(frame)); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

// A failed frame's samples land in the error directory under the header
// name, and reprocessing the dump is deterministic: it fails the same
// way.
func TestErrorDump(t *testing.T) {
	dir := t.TempDir()
	hdr := "1622222222.123456.A.1250000.00"
	frame := noiseFrame(hdr)

	cfg := Default()
	cfg.ShowFailedADSB = true
	cfg.ErrorDir = dir
	var out, diag bytes.Buffer
	d := NewDecoder(&out, &diag, cfg)
	if err := d.Run(bytes.NewReader(frame)); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, hdr+".i32")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("dump not written: %v", err)
	}
	if !bytes.Equal(raw, frame[AttributeLen:]) {
		t.Error("dump content mismatch")
	}

	attr, err := ParseAttributes(filepath.Base(path))
	if err != nil {
		t.Fatal(err)
	}
	out.Reset()
	d = NewDecoder(&out, &diag, Config{ShowFailedADSB: true})
	d.Process(attr, raw)
	if !strings.HasPrefix(out.String(), "#FAILED-ADS-B 00/98 ") {
		t.Errorf("reprocess outcome mismatch: %q", out.String())
	}
}

func TestRunEmptyInput(t *testing.T) {
	var out, diag bytes.Buffer
	d := NewDecoder(&out, &diag, Default())
	if err := d.Run(bytes.NewReader(nil)); err != nil {
		t.Fatalf("empty input: %v", err)
	}
	// A frame truncated mid-samples is end of input, not an error.
	in := []byte("1622222222.123456.A.1250000.00few bytes")
	if err := d.Run(bytes.NewReader(in)); err != nil {
		t.Fatalf("truncated input: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestLowestLevels(t *testing.T) {
	msg := make([]byte, adsb.ShortPayload)
	in := append(
		adsbFrame(t, "1622222222.000001.A.2000000.00", rs.ADSBShort, msg),
		adsbFrame(t, "1622222223.000002.A.1000000.00", rs.ADSBShort, msg)...)

	cfg := Default()
	cfg.ShowLowestLevels = true
	var out, diag bytes.Buffer
	d := NewDecoder(&out, &diag, cfg)
	if err := d.Run(bytes.NewReader(in)); err != nil {
		t.Fatal(err)
	}
	want := "lowest ADS-B (S) signal: 2.0\nlowest ADS-B (S) signal: 1.0\n"
	if diag.String() != want {
		t.Errorf("diagnostics mismatch;\nexpected %q,\ngot      %q", want, diag.String())
	}
}
