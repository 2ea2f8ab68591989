// Package calc holds the invoice arithmetic: line pricing, aggregation and status
// derivation. Every function is pure. Editors, list rows, the public payment page and
// the reconciliation fallback all derive their figures here and nowhere else.
package calc
