// Package mathmod is the built-in "math" module: byte-distribution entropy
// and mean/deviation statistics over the scanned data, the numeric half of
// YARA's own math module. Per-range helpers like `math.in_range` are not
// provided, and the condition language has no equivalent of them.
package mathmod

import (
	"math"

	"github.com/sansecio/yarax/modules"
	"github.com/sansecio/yarax/types"
)

func init() {
	modules.Register(modules.Module{
		Name:     "math",
		RootType: "Math",
		Main:     main,
	})
}

// Message is mathmod's Message implementation.
type Message struct {
	Entropy    float64
	Mean       float64
	Deviation  float64
	SerialCorr float64
}

func (m *Message) FullName() string { return "Math" }

func (m *Message) RequiredFieldsSet() bool { return true }

func (m *Message) ToStruct(generateEnumFields bool) *types.Struct {
	s := types.NewStruct("Math")
	s.AddField("entropy", types.Float(m.Entropy))
	s.AddField("mean", types.Float(m.Mean))
	s.AddField("deviation", types.Float(m.Deviation))
	s.AddField("serial_correlation", types.Float(m.SerialCorr))
	return s
}

func main(ctx modules.ScanContext) (modules.Message, error) {
	data := ctx.Data()
	if len(data) == 0 {
		return &Message{}, nil
	}

	var histogram [256]int
	for _, b := range data {
		histogram[b]++
	}

	return &Message{
		Entropy:    entropy(histogram, len(data)),
		Mean:       mean(data),
		Deviation:  deviation(data, mean(data)),
		SerialCorr: serialCorrelation(data),
	}, nil
}

func entropy(histogram [256]int, total int) float64 {
	var e float64
	for _, count := range histogram {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		e -= p * math.Log2(p)
	}
	return e
}

func mean(data []byte) float64 {
	var sum float64
	for _, b := range data {
		sum += float64(b)
	}
	return sum / float64(len(data))
}

func deviation(data []byte, m float64) float64 {
	var sum float64
	for _, b := range data {
		d := float64(b) - m
		sum += math.Abs(d)
	}
	return sum / float64(len(data))
}

// serialCorrelation is YARA math module's serial_correlation: correlation
// between each byte and the one following it, wrapping the last byte
// against the first.
func serialCorrelation(data []byte) float64 {
	n := float64(len(data))
	if n < 2 {
		return 0
	}

	var sum1, sum2, sum3 float64
	for i, b := range data {
		next := data[(i+1)%len(data)]
		sum1 += float64(b) * float64(next)
		sum2 += float64(b)
		sum3 += float64(b) * float64(b)
	}

	sum2 *= sum2
	denom := n*sum3 - sum2
	if denom == 0 {
		return 0
	}
	num := n*sum1 - sum2
	return num / denom
}
