// Package loader reads modulator sample streams from files.
//
// Three formats are understood:
//
//   - text: signed integers separated by white space, '#' starts a comment
//   - bits: a 1-bit stream of '0' and '1' characters, mapped to -1 and +1
//   - wav: integer PCM, channel 0, scaled down to the modulator width
package loader

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/sarchlab/dsmdec/fixed"
)

// Format identifies a stream file format.
type Format int

// Stream formats.
const (
	FormatText Format = iota
	FormatBits
	FormatWAV
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatBits:
		return "bits"
	case FormatWAV:
		return "wav"
	default:
		return "unknown"
	}
}

// ParseFormat returns the format with the given name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "text", "txt":
		return FormatText, nil
	case "bits":
		return FormatBits, nil
	case "wav":
		return FormatWAV, nil
	}
	return 0, errors.Errorf("unknown stream format %q", name)
}

// DetectFormat guesses the format from a file extension. Unknown extensions
// are read as text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return FormatWAV
	case ".bits":
		return FormatBits
	default:
		return FormatText
	}
}

// Stream is a modulator sample sequence.
type Stream struct {
	// Samples holds one modulator word per clock cycle.
	Samples []int64
	// Width is the modulator word width the samples were checked against.
	Width uint
	// Format is the format the stream was read from.
	Format Format
}

// Load reads a stream from path. Every sample must fit width bits.
func Load(path string, format Format, width uint) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open stream file")
	}
	defer func() { _ = f.Close() }()

	var s *Stream
	switch format {
	case FormatWAV:
		s, err = ReadWAV(f, width)
	default:
		s, err = Read(f, format, width)
	}
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return s, nil
}

// Read parses a text or bits stream.
func Read(r io.Reader, format Format, width uint) (*Stream, error) {
	if format != FormatText && format != FormatBits {
		return nil, errors.Errorf("cannot read %s stream as text", format)
	}

	s := &Stream{Width: width, Format: format}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}

		var err error
		if format == FormatBits {
			err = s.appendBits(text, line)
		} else {
			err = s.appendWords(text, line)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read stream")
	}

	return s, nil
}

func (s *Stream) appendWords(text string, line int) error {
	for _, field := range strings.Fields(text) {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		if !fixed.Fits(v, s.Width) {
			return errors.Errorf("line %d: sample %d does not fit %d bits", line, v, s.Width)
		}
		s.Samples = append(s.Samples, v)
	}
	return nil
}

func (s *Stream) appendBits(text string, line int) error {
	for _, c := range text {
		switch c {
		case '0':
			s.Samples = append(s.Samples, -1)
		case '1':
			s.Samples = append(s.Samples, 1)
		case ' ', '\t', '\r':
		default:
			return errors.Errorf("line %d: unexpected character %q in bit stream", line, c)
		}
	}
	return nil
}

// ReadWAV decodes integer PCM and keeps the width most significant bits of
// channel 0. 8-bit PCM is unsigned with its midpoint at 128.
func ReadWAV(r io.ReadSeeker, width uint) (*Stream, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode WAV data")
	}

	depth := uint(d.BitDepth)
	if depth < width {
		return nil, errors.Errorf("WAV bit depth %d is narrower than %d-bit samples", depth, width)
	}
	channels := int(d.NumChans)
	if channels < 1 {
		channels = 1
	}

	var offset int64
	if depth == 8 {
		offset = 128
	}

	s := &Stream{Width: width, Format: FormatWAV}
	for i := 0; i < len(buf.Data); i += channels {
		s.Samples = append(s.Samples, fixed.Truncate(int64(buf.Data[i])-offset, depth-width))
	}
	return s, nil
}

// WriteText writes samples one per line.
func WriteText(w io.Writer, samples []int64) error {
	bw := bufio.NewWriter(w)
	for _, v := range samples {
		if _, err := bw.WriteString(strconv.FormatInt(v, 10)); err != nil {
			return errors.Wrap(err, "failed to write samples")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "failed to write samples")
		}
	}
	return errors.Wrap(bw.Flush(), "failed to write samples")
}

// WriteWAV encodes samples of sourceWidth bits as mono integer PCM of the
// given bit depth. Samples are shifted so that sourceWidth full scale maps to
// the WAV full scale; samples outside sourceWidth saturate.
func WriteWAV(w io.WriteSeeker, samples []int64, sampleRate, bitDepth int, sourceWidth uint) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return errors.Errorf("unsupported WAV bit depth %d", bitDepth)
	}

	data := make([]int, len(samples))
	depth := uint(bitDepth)
	for i, v := range samples {
		v = min(max(v, fixed.MinValue(sourceWidth)), fixed.MaxValue(sourceWidth))
		if sourceWidth > depth {
			v = fixed.Truncate(v, sourceWidth-depth)
		} else {
			v <<= depth - sourceWidth
		}
		data[i] = int(v)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return errors.Wrap(err, "failed to encode WAV data")
	}
	return errors.Wrap(enc.Close(), "failed to finish WAV file")
}
