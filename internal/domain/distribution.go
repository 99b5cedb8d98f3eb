package domain

import "errors"

// Distribution describes how many questions of each type a quiz should
// contain. It is persisted as a single packed integer column, so the bit
// layout below is part of the storage format and must not change:
// bits 0-7 hold the direct-question count, bits 8-15 the two-statement
// compound count, bits 16-23 the contextual count. Bits 24-31 are reserved.
type Distribution struct {
	DirectQuestion       int `json:"direct_question"`
	TwoStatementCompound int `json:"two_statement_compound"`
	Contextual           int `json:"contextual"`
}

// ErrInvalidDistribution is returned when a distribution has a count outside
// the 8-bit range or contains no questions at all.
var ErrInvalidDistribution = errors.New("invalid question distribution")

const (
	// maxTypeCount is the largest per-type count the packed encoding can hold.
	maxTypeCount = 255

	// MaxDistributionTotal is the largest total a balanced distribution can
	// be built for (three full 8-bit counters).
	MaxDistributionTotal = 3 * maxTypeCount
)

// Validate checks that every count fits the packed encoding and that the
// distribution requests at least one question.
func (d Distribution) Validate() error {
	for _, n := range []int{d.DirectQuestion, d.TwoStatementCompound, d.Contextual} {
		if n < 0 || n > maxTypeCount {
			return ErrInvalidDistribution
		}
	}
	if d.Total() == 0 {
		return ErrInvalidDistribution
	}
	return nil
}

// Total returns the number of questions the distribution describes.
func (d Distribution) Total() int {
	return d.DirectQuestion + d.TwoStatementCompound + d.Contextual
}

// Encode packs the distribution into its integer storage representation.
// Returns ErrInvalidDistribution for counts the encoding cannot hold.
func (d Distribution) Encode() (int, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	return d.DirectQuestion | d.TwoStatementCompound<<8 | d.Contextual<<16, nil
}

// DecodeDistribution unpacks a stored distribution value. It is total:
// masking guarantees every count lands in range, so no error is possible.
func DecodeDistribution(packed int) Distribution {
	return Distribution{
		DirectQuestion:       packed & 0xFF,
		TwoStatementCompound: packed >> 8 & 0xFF,
		Contextual:           packed >> 16 & 0xFF,
	}
}

// NewBalancedDistribution spreads total questions evenly across the three
// types, giving any remainder to the direct-question count. Returns
// ErrInvalidDistribution if total is outside [1, MaxDistributionTotal].
func NewBalancedDistribution(total int) (Distribution, error) {
	if total < 1 || total > MaxDistributionTotal {
		return Distribution{}, ErrInvalidDistribution
	}
	base := total / 3
	return Distribution{
		DirectQuestion:       base + total%3,
		TwoStatementCompound: base,
		Contextual:           base,
	}, nil
}
