// Package feature provides categorical encoding and the engineered feature
// transforms shared by the training and serving paths. Both paths MUST build
// vectors through this package: the scaler and classifier parameters are
// positional, so any drift in field order silently corrupts predictions.
package feature

import (
	"sort"
	"strconv"
)

// UnknownCode is returned by Encode for values that were not seen at fit
// time. It collides with the code of the first known value in sort order;
// unseen categories degrade to that neutral default instead of failing.
const UnknownCode = 0

// Codebook maps observed categorical string values to stable integer codes.
// A Codebook is built once per training run and is immutable afterward.
type Codebook struct {
	Codes map[string]int `json:"codes"`
}

// Fit assigns each distinct value an integer code in sorted order, starting
// at 0. Sorting makes the assignment deterministic regardless of input order.
func Fit(values []string) *Codebook {
	distinct := make(map[string]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}

	sorted := make([]string, 0, len(distinct))
	for v := range distinct {
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)

	codes := make(map[string]int, len(sorted))
	for i, v := range sorted {
		codes[v] = i
	}
	return &Codebook{Codes: codes}
}

// Encode returns the learned code for value, or UnknownCode when the value
// was not seen during Fit. It never fails.
func (c *Codebook) Encode(value string) int {
	if c == nil {
		return UnknownCode
	}
	if code, ok := c.Codes[value]; ok {
		return code
	}
	return UnknownCode
}

// Known reports whether value was seen during Fit.
func (c *Codebook) Known(value string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Codes[value]
	return ok
}

// Size returns the number of known values.
func (c *Codebook) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Codes)
}

// IntKey normalizes an integer-valued categorical field (line item ids,
// publisher ids) to the string form used for fitting and encoding. Absent
// publishers arrive as 0 and encode as the literal "0", so "absent" and
// "publisher 0" share a code.
func IntKey(v int) string {
	return strconv.Itoa(v)
}
