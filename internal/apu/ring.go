package apu

// sampleRing is a fixed-capacity single-producer/single-consumer ring
// buffer of mixed audio samples. The APU writes one sample per resampled
// tick; the host drains samples on its own cadence via ReadAudio. On
// overrun (the ring fills before the host drains it) the oldest sample is
// silently discarded to make room for the newest, per the producer/
// consumer contract: the writer never blocks.
type sampleRing struct {
	buf        []float32
	readIndex  int
	writeIndex int
	count      int
}

const ringCapacity = 8192

func newSampleRing() *sampleRing {
	return &sampleRing{buf: make([]float32, ringCapacity)}
}

func (r *sampleRing) push(sample float32) {
	r.buf[r.writeIndex] = sample
	r.writeIndex = (r.writeIndex + 1) % len(r.buf)
	if r.count == len(r.buf) {
		// Overrun: advance the read pointer past the sample we just
		// overwrote so the oldest data is dropped rather than replayed.
		r.readIndex = (r.readIndex + 1) % len(r.buf)
	} else {
		r.count++
	}
}

func (r *sampleRing) available() int { return r.count }

// drain copies up to len(out) samples into out, oldest first, and returns
// the count actually copied. When fewer samples are available than
// requested, the available samples are linearly resampled (stretched) to
// fill the full request rather than returning a short, glitchy read.
func (r *sampleRing) drain(out []float32) int {
	if len(out) == 0 {
		return 0
	}
	if r.count == 0 {
		return 0
	}
	if r.count >= len(out) {
		for i := range out {
			out[i] = r.buf[r.readIndex]
			r.readIndex = (r.readIndex + 1) % len(r.buf)
		}
		r.count -= len(out)
		return len(out)
	}

	source := make([]float32, r.count)
	for i := range source {
		source[i] = r.buf[r.readIndex]
		r.readIndex = (r.readIndex + 1) % len(r.buf)
	}
	avail := r.count
	r.count = 0

	if avail == 1 {
		for i := range out {
			out[i] = source[0]
		}
		return len(out)
	}
	step := float64(avail-1) / float64(len(out)-1)
	for i := range out {
		pos := step * float64(i)
		lo := int(pos)
		if lo >= avail-1 {
			out[i] = source[avail-1]
			continue
		}
		frac := float32(pos - float64(lo))
		out[i] = source[lo]*(1-frac) + source[lo+1]*frac
	}
	return len(out)
}
