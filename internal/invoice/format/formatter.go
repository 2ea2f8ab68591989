package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultInvoiceNumberTemplate = "INV-{YYYY}{MM}{DD}-{SEQ4}"

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

// FormatInvoiceNumber renders template for an invoice issued at issuedAt with the
// per-organization sequence seq. Supported tokens: {YYYY} {YY} {MM} {DD} {SEQ} {SEQn}.
func FormatInvoiceNumber(template string, issuedAt time.Time, seq int64) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}
	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}

	out := strings.NewReplacer(
		"{YYYY}", issuedAt.Format("2006"),
		"{YY}", issuedAt.Format("06"),
		"{MM}", issuedAt.Format("01"),
		"{DD}", issuedAt.Format("02"),
		"{SEQ}", strconv.FormatInt(seq, 10),
	).Replace(template)

	var padErr error
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		width, err := strconv.Atoi(seqPadRe.FindStringSubmatch(m)[1])
		if err != nil || width <= 0 || width > 12 {
			padErr = fmt.Errorf("invalid sequence width in %s", m)
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})
	if padErr != nil {
		return "", padErr
	}

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}
	return out, nil
}
