package web

import "strings"

// acceptFormats comma-splits and trims the request's Accept header,
// defaulting to "*/*" when absent.
func acceptFormats(header string) []string {
	if strings.TrimSpace(header) == "" {
		header = "*/*"
	}
	parts := strings.Split(header, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// firstAccepted returns the first of available that also appears in
// accepts (an unqualified "*/*" matches any of them), preserving the
// Accept header's stated preference order.
func firstAccepted(accepts []string, available ...string) (string, bool) {
	for _, a := range accepts {
		if a == "*/*" && len(available) > 0 {
			return available[0], true
		}
		for _, avail := range available {
			if a == avail {
				return avail, true
			}
		}
	}
	return "", false
}

var qidoJSONMediaTypes = []string{"application/json", "application/dicom+json"}

var capabilitiesJSONMediaTypes = []string{"application/dicom+json", "application/json"}

var capabilitiesXMLMediaTypes = []string{
	"application/vnd.sun.wadl+xml",
	"application/dicom+xml",
	"application/xml",
}
