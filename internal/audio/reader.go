package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultChunkFrames is the number of frames decoded per chunk when the
// caller passes a non-positive size.
const DefaultChunkFrames = 4096

const wavFormatPCM = 1

// Format describes a decoded WAV stream. Frames is filled in once the
// stream has been fully read.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
}

// Duration in seconds of the frames read so far.
func (f Format) Duration() float64 {
	if f.SampleRate == 0 {
		return 0
	}
	return float64(f.Frames) / float64(f.SampleRate)
}

// Chunk is a block of mono samples normalized to [-1, 1].
type Chunk struct {
	Samples    []float64
	SampleRate int
}

// StreamWav decodes a PCM WAV file chunk by chunk, downmixing to mono, and
// hands every chunk to fn. The Samples slice is reused between calls; fn
// must copy it if it keeps it. Stops at the first error from fn or when ctx
// is done.
func StreamWav(ctx context.Context, path string, chunkFrames int, fn func(Chunk) error) (Format, error) {
	if chunkFrames <= 0 {
		chunkFrames = DefaultChunkFrames
	}

	f, err := os.Open(path)
	if err != nil {
		return Format{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Format{}, errors.New("not a valid WAV/RIFF file")
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return Format{}, fmt.Errorf("unsupported WAV audio format %d: only PCM (1) supported", dec.WavAudioFormat)
	}

	format := Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if format.Channels < 1 {
		return format, errors.New("WAV file declares no channels")
	}
	if format.SampleRate <= 0 {
		return format, errors.New("WAV file declares no sample rate")
	}
	if format.BitDepth != 8 && format.BitDepth != 16 && format.BitDepth != 24 && format.BitDepth != 32 {
		return format, fmt.Errorf("unsupported bits per sample: %d", format.BitDepth)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           make([]int, chunkFrames*format.Channels),
		SourceBitDepth: format.BitDepth,
	}
	mono := make([]float64, chunkFrames)

	for {
		if err := ctx.Err(); err != nil {
			return format, err
		}

		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return format, fmt.Errorf("decoding PCM samples: %w", err)
		}
		frames := n / format.Channels
		if frames == 0 {
			break
		}

		out := downmix(mono[:frames], buf.Data[:frames*format.Channels], format.Channels, format.BitDepth)
		format.Frames += frames
		if err := fn(Chunk{Samples: out, SampleRate: format.SampleRate}); err != nil {
			return format, err
		}
	}

	return format, nil
}

// downmix averages interleaved integer frames into dst, normalized to [-1, 1].
func downmix(dst []float64, data []int, channels, bitDepth int) []float64 {
	scale := 1.0 / float64(int(1)<<(bitDepth-1))
	offset := 0
	if bitDepth == 8 {
		// 8-bit PCM is unsigned
		offset = 128
	}

	for i := range dst {
		var sum int
		frame := data[i*channels : (i+1)*channels]
		for _, s := range frame {
			sum += s - offset
		}
		dst[i] = float64(sum) * scale / float64(channels)
	}
	return dst
}

// ReadWavAsFloat64 reads a whole PCM WAV file and returns mono samples in
// [-1, 1] and the sample rate.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	var samples []float64
	format, err := StreamWav(context.Background(), path, DefaultChunkFrames, func(c Chunk) error {
		samples = append(samples, c.Samples...)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return samples, format.SampleRate, nil
}

// WriteWav writes mono samples as a 16-bit PCM WAV file. Samples outside
// [-1, 1] are clipped.
func WriteWav(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, wavFormatPCM)
	data := make([]int, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * 32767))
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encoding WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing WAV: %w", err)
	}
	return f.Close()
}
