package repr

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// xmlRoot is the Native DICOM Model XML document root.
type xmlRoot struct {
	XMLName    xml.Name  `xml:"NativeDicomModel"`
	Attributes []xmlAttr `xml:"DicomAttribute"`
}

type xmlAttr struct {
	Tag         string          `xml:"tag,attr"`
	VR          string          `xml:"vr,attr"`
	Keyword     string          `xml:"keyword,attr,omitempty"`
	Values      []xmlValue      `xml:"Value,omitempty"`
	Items       []xmlItem       `xml:"Item,omitempty"`
	PersonNames []xmlPersonName `xml:"PersonName,omitempty"`
}

type xmlValue struct {
	Number int    `xml:"number,attr"`
	Text   string `xml:",chardata"`
}

type xmlItem struct {
	Number     int       `xml:"number,attr"`
	Attributes []xmlAttr `xml:"DicomAttribute"`
}

type xmlPersonName struct {
	Number     int    `xml:"number,attr"`
	Alphabetic string `xml:"Alphabetic"`
}

// ToXML renders nodes as an ordered Native DICOM Model XML document. Unlike
// the JSON form, attribute order is preserved (callers should pass nodes
// already sorted group-major ascending, as instance.Instance.Iterate does).
func ToXML(nodes []*Node) ([]byte, error) {
	root := xmlRoot{Attributes: nodesToXML(nodes)}
	out, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func nodesToXML(nodes []*Node) []xmlAttr {
	attrs := make([]xmlAttr, len(nodes))
	for i, n := range nodes {
		attrs[i] = nodeToXML(n)
	}
	return attrs
}

func nodeToXML(n *Node) xmlAttr {
	a := xmlAttr{
		Tag:     fmt.Sprintf("%04x%04x", n.Tag.Group, n.Tag.Element),
		VR:      n.VR.String(),
		Keyword: n.Keyword,
	}

	switch n.Kind {
	case KindEmpty:
		return a
	case KindString:
		a.Values = []xmlValue{{Number: 1, Text: n.Strings[0]}}
	case KindNumeral:
		a.Values = make([]xmlValue, len(n.Numerals))
		for i, v := range n.Numerals {
			a.Values[i] = xmlValue{Number: i + 1, Text: strconv.FormatFloat(v, 'g', -1, 64)}
		}
	case KindPersonName:
		a.PersonNames = make([]xmlPersonName, len(n.PersonNames))
		for i, v := range n.PersonNames {
			a.PersonNames[i] = xmlPersonName{Number: i + 1, Alphabetic: v}
		}
	case KindSequence:
		a.Items = make([]xmlItem, len(n.Items))
		for i, item := range n.Items {
			a.Items[i] = xmlItem{Number: i + 1, Attributes: nodesToXML(item)}
		}
	}
	return a
}
