package chain

import "strings"

// Violation describes a block that fails one or more integrity checks.
type Violation struct {
	Block   *Block   `json:"block"`
	Reasons []string `json:"reasons"`
}

// String joins the violation reasons.
func (v Violation) String() string {
	return strings.Join(v.Reasons, "; ")
}

// Violation reasons.
const (
	ReasonHashMismatch     = "stored hash does not match block contents"
	ReasonBrokenLink       = "previous hash does not match predecessor"
	ReasonHeightGap        = "height does not follow predecessor"
	ReasonGenesisHasParent = "genesis block has a previous hash"
)

// Validate walks blocks in order and returns every block that fails an
// integrity check. An empty result means the chain is valid. Validate never
// modifies its input.
func Validate(blocks []*Block) []Violation {
	var out []Violation
	for i, b := range blocks {
		var reasons []string
		if !b.SelfConsistent() {
			reasons = append(reasons, ReasonHashMismatch)
		}

		if i == 0 {
			if b.Height != 0 {
				reasons = append(reasons, ReasonHeightGap)
			}
			if b.PreviousHash != "" {
				reasons = append(reasons, ReasonGenesisHasParent)
			}
		} else {
			prev := blocks[i-1]
			if b.PreviousHash != prev.Hash {
				reasons = append(reasons, ReasonBrokenLink)
			}
			if b.Height != prev.Height+1 {
				reasons = append(reasons, ReasonHeightGap)
			}
		}

		if len(reasons) > 0 {
			out = append(out, Violation{Block: b.clone(), Reasons: reasons})
		}
	}
	return out
}
