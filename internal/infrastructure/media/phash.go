package media

import (
	"image"
	"math"
	"sort"

	"github.com/AtRiskMedia/skycards-go/internal/domain/photos"
	"github.com/disintegration/imaging"
)

const (
	hashSampleSize = 32
	hashBlockSize  = 8
)

// dctCos[k][n] = cos(pi * k * (2n+1) / 2N)
var dctCos = func() [hashSampleSize][hashSampleSize]float64 {
	var table [hashSampleSize][hashSampleSize]float64
	for k := 0; k < hashSampleSize; k++ {
		for n := 0; n < hashSampleSize; n++ {
			table[k][n] = math.Cos(math.Pi * float64(k) * float64(2*n+1) / float64(2*hashSampleSize))
		}
	}
	return table
}()

// PerceptualHash computes the 64-bit DCT hash of img: grayscale, resize to
// 32x32, 2D DCT-II, keep the lowest 8x8 coefficients and set each bit when
// the coefficient is above their median. Bits are laid out row-major with
// the first coefficient in the most significant bit.
func PerceptualHash(img image.Image) photos.Fingerprint {
	gray := imaging.Grayscale(img)
	small := imaging.Resize(gray, hashSampleSize, hashSampleSize, imaging.Lanczos)

	var pixels [hashSampleSize][hashSampleSize]float64
	for y := 0; y < hashSampleSize; y++ {
		row := small.Pix[y*small.Stride:]
		for x := 0; x < hashSampleSize; x++ {
			pixels[y][x] = float64(row[x*4])
		}
	}

	// Columns first, then rows; only the low block is ever read.
	var cols [hashSampleSize][hashSampleSize]float64
	for k := 0; k < hashBlockSize; k++ {
		for x := 0; x < hashSampleSize; x++ {
			var sum float64
			for y := 0; y < hashSampleSize; y++ {
				sum += pixels[y][x] * dctCos[k][y]
			}
			cols[k][x] = 2 * sum
		}
	}

	var low [hashBlockSize * hashBlockSize]float64
	for k := 0; k < hashBlockSize; k++ {
		for l := 0; l < hashBlockSize; l++ {
			var sum float64
			for x := 0; x < hashSampleSize; x++ {
				sum += cols[k][x] * dctCos[l][x]
			}
			low[k*hashBlockSize+l] = 2 * sum
		}
	}

	med := median(low[:])
	var fp photos.Fingerprint
	for i, v := range low {
		if v > med {
			fp |= 1 << uint(len(low)-1-i)
		}
	}
	return fp
}

// median averages the two middle values for even-length input.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
