package currency

import (
	"fmt"

	"github.com/juju/errors"
)

// Amount is integer counting whole pounds, e.g. £12 = 12.
// Receipt and till arithmetic never go beyond Max.
type Amount uint16

// Max is the largest running total the till accepts, limited by the three price digits on receipt.
const Max Amount = 999

const Symbol = "£"

var ErrOverflow = errors.New("amount over till maximum")

func (self Amount) Format() string { return fmt.Sprintf("%s%d", Symbol, self) }
func (self Amount) String() string { return self.Format() }

// Add returns self+other or self unchanged and ErrOverflow when result would exceed Max.
func (self Amount) Add(other Amount) (Amount, error) {
	if uint32(self)+uint32(other) > uint32(Max) {
		return self, errors.Annotatef(ErrOverflow, "%s + %s", self.Format(), other.Format())
	}
	return self + other, nil
}

// FromInt validates configured price.
func FromInt(i int) (Amount, error) {
	if i < 0 || i > int(Max) {
		return 0, errors.NotValidf("price=%d range=0..%d", i, Max)
	}
	return Amount(i), nil
}
