package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

// maxSample is the magnitude of a full-scale 16-bit sample, used to bring
// RMS values into [0, 1].
const maxSample = 32768.0

// RMSBlocks divides the sample stream into blockCount equal blocks and
// returns each block's RMS energy normalized to [0, 1]. The last partial
// block is averaged over the samples it actually holds.
func RMSBlocks(samples []int16, blockCount int) ([]float64, error) {
	if blockCount <= 0 {
		return nil, errors.New("block count must be positive")
	}
	if len(samples) == 0 {
		return make([]float64, blockCount), nil
	}

	blockSize := len(samples) / blockCount
	if blockSize == 0 {
		blockSize = 1
	}

	blocks := make([]float64, blockCount)
	for i := 0; i < blockCount; i++ {
		start := i * blockSize
		if start >= len(samples) {
			break
		}
		end := start + blockSize
		if i == blockCount-1 || end > len(samples) {
			end = len(samples)
		}

		var sum float64
		for _, sample := range samples[start:end] {
			value := float64(sample)
			sum += value * value
		}
		blocks[i] = math.Sqrt(sum/float64(end-start)) / maxSample
	}
	return blocks, nil
}

// ReadFile loads raw mono s16le samples from disk.
func ReadFile(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	return Decode(data), nil
}

// Decode converts raw little-endian bytes to samples. A trailing odd byte is
// ignored.
func Decode(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// Peak returns the largest normalized RMS value, used to scale the waveform
// so quiet clips still animate.
func Peak(blocks []float64) float64 {
	peak := 0.0
	for _, block := range blocks {
		if block > peak {
			peak = block
		}
	}
	return peak
}
