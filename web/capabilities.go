package web

import (
	"encoding/xml"
	"net/http"
)

// wadlParam describes one request query/path parameter in the WADL
// capabilities document.
type wadlParam struct {
	Name     string `xml:"name,attr" json:"name"`
	Style    string `xml:"style,attr" json:"style"`
	Required string `xml:"required,attr" json:"required"`
}

type wadlRequest struct {
	Params []wadlParam `xml:"param" json:"param"`
}

type wadlRepresentation struct {
	MediaType string `xml:"mediaType,attr" json:"mediaType"`
}

type wadlResponse struct {
	Status         string              `xml:"status,attr" json:"status"`
	Representation *wadlRepresentation `xml:"representation,omitempty" json:"representation,omitempty"`
}

type wadlMethod struct {
	Name      string         `xml:"name,attr" json:"name"`
	ID        string         `xml:"id,attr" json:"id"`
	Requests  []wadlRequest  `xml:"request" json:"request"`
	Responses []wadlResponse `xml:"response" json:"response"`
}

type wadlResource struct {
	Path    string       `xml:"path,attr" json:"path"`
	Methods []wadlMethod `xml:"method" json:"method"`
}

type wadlResources struct {
	Base      string         `xml:"base,attr" json:"base"`
	Resources []wadlResource `xml:"resource" json:"resource"`
}

// wadlApplication is the root of the capabilities document: a plain Go
// struct shared by both encoders, rather than the round-trip-through-XML
// approach the Rust original uses (parse its embedded WADL file back into
// the same struct it came from) - this module builds the document directly
// in both element-attribute (XML) and name-field (JSON) shape, so there is
// no stray "@"-prefixed field name to strip from the JSON rendering.
type wadlApplication struct {
	XMLName   xml.Name      `xml:"application" json:"-"`
	Resources wadlResources `xml:"resources" json:"resources"`
}

// capabilitiesDocument returns the WADL capabilities tree advertising the
// routes this server implements.
func capabilitiesDocument(base string) wadlApplication {
	qidoParams := []wadlParam{
		{Name: "limit", Style: "query", Required: "false"},
		{Name: "offset", Style: "query", Required: "false"},
		{Name: "fuzzymatching", Style: "query", Required: "false"},
		{Name: "includefield", Style: "query", Required: "false"},
	}
	qidoResponses := []wadlResponse{
		{Status: "200", Representation: &wadlRepresentation{MediaType: "application/dicom+json"}},
		{Status: "404"},
	}
	qidoMethod := func(id string) wadlMethod {
		return wadlMethod{
			Name:      "GET",
			ID:        id,
			Requests:  []wadlRequest{{Params: qidoParams}},
			Responses: qidoResponses,
		}
	}

	return wadlApplication{
		Resources: wadlResources{
			Base: base,
			Resources: []wadlResource{
				{Path: "studies", Methods: []wadlMethod{
					qidoMethod("searchForStudies"),
					{
						Name:      "POST",
						ID:        "storeInstances",
						Requests:  []wadlRequest{{Params: []wadlParam{{Name: "Content-Type", Style: "header", Required: "true"}}}},
						Responses: []wadlResponse{{Status: "200"}, {Status: "400"}, {Status: "500"}},
					},
					{Name: "DELETE", ID: "deleteStudies", Responses: []wadlResponse{{Status: "200"}}},
				}},
				{Path: "studies/{study}", Methods: []wadlMethod{
					qidoMethod("searchForStudy"),
					{Name: "DELETE", ID: "deleteStudy", Responses: []wadlResponse{{Status: "200"}}},
				}},
				{Path: "studies/{study}/series", Methods: []wadlMethod{qidoMethod("searchForSeries")}},
				{Path: "series", Methods: []wadlMethod{qidoMethod("searchForAllSeries")}},
				{Path: "instances", Methods: []wadlMethod{qidoMethod("searchForAllInstances")}},
			},
		},
	}
}

// handleCapabilities implements GET/OPTIONS / : a content-negotiated
// capabilities document, WADL/XML for the WADL/XML family of Accept
// values and a structurally equivalent JSON document for the dicom+json
// family.
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	accepts := acceptFormats(r.Header.Get("Accept"))
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	doc := capabilitiesDocument(scheme + "://" + r.Host + "/")

	if _, ok := firstAccepted(accepts, capabilitiesXMLMediaTypes...); ok {
		body, err := xml.MarshalIndent(doc, "", "  ")
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, "application/dicom+xml", append([]byte(xml.Header), body...))
		return
	}

	if _, ok := firstAccepted(accepts, capabilitiesJSONMediaTypes...); ok {
		writeJSON(w, http.StatusOK, "application/dicom+json; charset=utf-8", mustMarshalJSON(doc))
		return
	}

	writeError(w, http.StatusUnsupportedMediaType, ErrUnsupportedMediaType)
}
