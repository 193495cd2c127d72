/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier.go
Description: Heuristic failure classifier for chaos campaigns. Maps program
error strings and log lines onto vulnerability categories and severities via
a substring lookup table. Deliberately simple: the table is the whole
heuristic, there is no deeper analysis here.
*/

package chaos

import (
	"strings"
)

// Severity levels for classified findings
const (
	SeverityInfo     = "info"
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// signature maps an error/log substring to a category and severity
type signature struct {
	substr   string
	category string
	severity string
}

// defaultSignatures is the built-in lookup table, ordered most to least
// specific; the first match wins.
var defaultSignatures = []signature{
	{"arithmetic overflow", "integer-overflow", SeverityCritical},
	{"overflow", "integer-overflow", SeverityHigh},
	{"underflow", "integer-underflow", SeverityHigh},
	{"divide by zero", "arithmetic-error", SeverityHigh},
	{"missing required signature", "signer-check-bypass", SeverityCritical},
	{"unauthorized", "access-control", SeverityCritical},
	{"owner does not match", "owner-check-bypass", SeverityCritical},
	{"privilege escalation", "access-control", SeverityCritical},
	{"insufficient funds", "balance-validation", SeverityMedium},
	{"invalid account data", "deserialization", SeverityMedium},
	{"account data too small", "bounds-check", SeverityMedium},
	{"failed to serialize", "serialization", SeverityLow},
	{"invalid instruction data", "input-validation", SeverityLow},
	{"custom program error", "program-error", SeverityLow},
	{"out of memory", "resource-exhaustion", SeverityHigh},
	{"exceeded maximum number of instructions", "compute-exhaustion", SeverityMedium},
	{"stack overflow", "resource-exhaustion", SeverityHigh},
}

// Classifier matches failure output against the signature table
type Classifier struct {
	signatures []signature
}

// NewClassifier creates a classifier with the built-in signature table
func NewClassifier() *Classifier {
	return &Classifier{signatures: defaultSignatures}
}

// AddSignature appends a custom signature, checked after the built-ins
func (c *Classifier) AddSignature(substr, category, severity string) {
	c.signatures = append(c.signatures, signature{
		substr:   strings.ToLower(substr),
		category: category,
		severity: severity,
	})
}

// Classify maps an error string plus program logs onto a category and
// severity. Unmatched failures classify as unclassified/info.
func (c *Classifier) Classify(errStr string, logs []string) (category, severity string) {
	haystack := strings.ToLower(errStr)
	for _, line := range logs {
		haystack += "\n" + strings.ToLower(line)
	}

	for _, sig := range c.signatures {
		if strings.Contains(haystack, sig.substr) {
			return sig.category, sig.severity
		}
	}
	return "unclassified", SeverityInfo
}
