package twilio

import (
	"net/url"
)

// ValidateSignature checks a webhook signature against the full callback URL and the POST parameters.
func (s *Service) ValidateSignature(callbackURL string, params url.Values, signature string) bool {
	if signature == "" || s.authToken == "" {
		return false
	}
	fields := make(map[string]string, len(params))
	for k := range params {
		fields[k] = params.Get(k)
	}
	return s.validator.Validate(callbackURL, fields, signature)
}
