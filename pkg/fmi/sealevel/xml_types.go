package sealevel

// member is one wfs:member of the simple feature response
type member struct {
	Element *BsWfsElement `xml:"BsWfsElement"`
}

// BsWfsElement is a single simple feature record. Fields are pointers so that
// missing children can be told apart from empty ones.
type BsWfsElement struct {
	GmlID          string   `xml:"id,attr"`
	Location       Location `xml:"Location"`
	Time           *string  `xml:"Time"`
	ParameterName  *string  `xml:"ParameterName"`
	ParameterValue *string  `xml:"ParameterValue"`
}

// Location holds the position of the forecast point
type Location struct {
	Point Point2D `xml:"Point"`
}

// Point2D is a gml:Point
type Point2D struct {
	GmlID   string `xml:"id,attr"`
	SrsName string `xml:"srsName,attr"`
	Pos     string `xml:"pos"`
}
