// Package audio transcodes MP3 files to PCM WAV for the ConvertMP3ToWAV
// script function.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

const (
	// The MP3 decoder always yields 16-bit little-endian stereo frames.
	decodedChannels = 2
	decodedBitDepth = 16
	bytesPerFrame   = decodedChannels * decodedBitDepth / 8

	wavFormatPCM = 1
	chunkFrames  = 4096
)

// Converter writes <name>.wav next to each <name>.mp3 it converts.
type Converter struct {
	Logger *log.Logger
}

// New returns a converter.
func New(logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Converter{Logger: logger}
}

// WAVPath returns the output path used for an MP3 input.
func WAVPath(mp3Path string) string {
	return strings.TrimSuffix(mp3Path, filepath.Ext(mp3Path)) + ".wav"
}

// ConvertMP3ToWAV decodes path and writes a 16-bit PCM WAV file. A partial
// output file is removed on failure.
func (c *Converter) ConvertMP3ToWAV(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", c.fail(path, err)
	}
	defer in.Close()

	dec, err := mp3.NewDecoder(in)
	if err != nil {
		return "", c.fail(path, fmt.Errorf("decode mp3: %w", err))
	}

	outPath := WAVPath(path)
	out, err := os.Create(outPath)
	if err != nil {
		return "", c.fail(path, err)
	}
	err = WriteWAV(out, dec, dec.SampleRate())
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(outPath)
		return "", c.fail(path, err)
	}
	c.Logger.Printf("converted %s to %s (%d Hz)", path, outPath, dec.SampleRate())
	return outPath, nil
}

// WriteWAV encodes interleaved 16-bit little-endian stereo PCM from pcm.
// A trailing partial frame is dropped.
func WriteWAV(dst io.WriteSeeker, pcm io.Reader, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	enc := wav.NewEncoder(dst, sampleRate, decodedBitDepth, decodedChannels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: decodedChannels, SampleRate: sampleRate},
		SourceBitDepth: decodedBitDepth,
	}

	raw := make([]byte, chunkFrames*bytesPerFrame)
	var pending int
	for {
		n, readErr := pcm.Read(raw[pending:])
		pending += n
		whole := pending - pending%bytesPerFrame
		if whole > 0 {
			buf.Data = samples(buf.Data[:0], raw[:whole])
			if err := enc.Write(buf); err != nil {
				return fmt.Errorf("write wav: %w", err)
			}
			pending = copy(raw, raw[whole:pending])
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read pcm: %w", readErr)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

// samples appends the signed 16-bit values in raw to dst.
func samples(dst []int, raw []byte) []int {
	for i := 0; i+1 < len(raw); i += 2 {
		dst = append(dst, int(int16(binary.LittleEndian.Uint16(raw[i:]))))
	}
	return dst
}

func (c *Converter) fail(path string, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeCollaborator, "convert "+path,
		map[string]string{"Action": "Converting " + filepath.Base(path)}, err)
}
