package stockflow

// Outcome tags one element of a batch operation with its result. Engines
// never abort a batch because one element failed; they collect outcomes and
// let the caller tell "nothing happened" from "most of it worked".
type Outcome struct {
	Ref string // what the element refers to: split index, allocation id, item id
	Err error  // nil on success
}

// OK reports whether the outcome succeeded
func (o Outcome) OK() bool { return o.Err == nil }

// countOK returns how many outcomes succeeded
func countOK(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// allOK reports whether every outcome succeeded
func allOK(outcomes []Outcome) bool {
	return countOK(outcomes) == len(outcomes)
}
