package audio

// DownmixStereo averages interleaved stereo samples into mono.
// Odd trailing samples are dropped.
func DownmixStereo(samples []float32) []float32 {
	frames := len(samples) / 2
	out := make([]float32, frames)
	for i := range frames {
		out[i] = (samples[i*2] + samples[i*2+1]) / 2
	}
	return out
}

// Resample converts w to dstRate using linear interpolation. When the
// rates already match, w is returned unchanged.
func Resample(w Waveform, dstRate int) Waveform {
	if dstRate <= 0 || w.SampleRate <= 0 || w.SampleRate == dstRate || len(w.Samples) == 0 {
		return Waveform{Samples: w.Samples, SampleRate: dstRate}
	}

	srcSamples := len(w.Samples)
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(w.SampleRate))
	if dstSamples == 0 {
		return Waveform{SampleRate: dstRate}
	}

	out := make([]float32, dstSamples)
	ratio := float64(w.SampleRate) / float64(dstRate)

	for i := range dstSamples {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		s0 := w.Samples[srcIdx]
		s1 := s0
		if srcIdx+1 < srcSamples {
			s1 = w.Samples[srcIdx+1]
		}
		out[i] = s0*(1-frac) + s1*frac
	}
	return Waveform{Samples: out, SampleRate: dstRate}
}
