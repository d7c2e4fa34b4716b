package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

const bitsPerSample = 16

// DecodeWAV parses a RIFF/WAVE file containing 16-bit PCM audio and
// returns its content as a mono waveform. Stereo input is downmixed by
// averaging channels. Unknown sub-chunks (LIST, fact, ...) are skipped.
func DecodeWAV(data []byte) (Waveform, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Waveform{}, fmt.Errorf("decode wav: not a RIFF/WAVE file")
	}

	var (
		sampleRate int
		channels   int
		haveFmt    bool
	)

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(data) {
			return Waveform{}, fmt.Errorf("decode wav: truncated %q chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Waveform{}, fmt.Errorf("decode wav: fmt chunk too short (%d bytes)", chunkSize)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return Waveform{}, fmt.Errorf("decode wav: unsupported audio format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bps := int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if bps != bitsPerSample {
				return Waveform{}, fmt.Errorf("decode wav: unsupported bit depth %d (want %d)", bps, bitsPerSample)
			}
			if channels < 1 || channels > 2 {
				return Waveform{}, fmt.Errorf("decode wav: unsupported channel count %d", channels)
			}
			if sampleRate <= 0 {
				return Waveform{}, fmt.Errorf("decode wav: invalid sample rate %d", sampleRate)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return Waveform{}, fmt.Errorf("decode wav: data chunk before fmt chunk")
			}
			samples := pcm16ToFloat32(data[body : body+chunkSize])
			if channels == 2 {
				samples = DownmixStereo(samples)
			}
			return Waveform{Samples: samples, SampleRate: sampleRate}, nil
		}

		// Chunks are word-aligned.
		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}

	return Waveform{}, fmt.Errorf("decode wav: no data chunk found")
}

// EncodeWAV renders the waveform as a 16-bit PCM mono RIFF/WAVE file.
func EncodeWAV(w Waveform) []byte {
	pcm := float32ToPCM16(w.Samples)
	byteRate := w.SampleRate * bitsPerSample / 8
	blockAlign := bitsPerSample / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                    // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)                     // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1)                     // num channels (mono)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(w.SampleRate))  // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))      // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))    // block align
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bitsPerSample)) // bits per sample

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// EncodePCM16 renders the waveform as headerless little-endian 16-bit
// PCM, the framing expected by streaming recognizers.
func EncodePCM16(w Waveform) []byte {
	return float32ToPCM16(w.Samples)
}

// pcm16ToFloat32 converts little-endian int16 PCM bytes to normalized
// float32 samples.
func pcm16ToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := range n {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		out[i] = float32(s) / 32768
	}
	return out
}

// float32ToPCM16 converts normalized float32 samples to little-endian
// int16 PCM bytes, clamping out-of-range values.
func float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Round(float64(s) * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
