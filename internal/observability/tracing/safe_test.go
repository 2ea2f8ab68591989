package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsSecrets(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/public/orgs/:org_id/invoices/:invoice_token"),
		attribute.String("invoice_token", "tok"),
		attribute.String("client_secret", "pi_1_secret_abc"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorRedactsClientSecret(t *testing.T) {
	err := SafeError(errors.New("confirm failed for pi_123_secret_xyz"))
	assert.Equal(t, "confirm failed for pi_123_secret_[redacted]", err.Error())
	assert.Nil(t, SafeError(nil))
}
