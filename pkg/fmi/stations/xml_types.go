package stations

import "encoding/xml"

type facilityCollection struct {
	XMLName xml.Name         `xml:"FeatureCollection"`
	Members []facilityMember `xml:"member"`
}

type facilityMember struct {
	Facility *monitoringFacility `xml:"EnvironmentalMonitoringFacility"`
}

// monitoringFacility is an ef:EnvironmentalMonitoringFacility element
type monitoringFacility struct {
	GmlID      string           `xml:"id,attr"`
	Identifier codeSpaceValue   `xml:"identifier"`
	Names      []codeSpaceValue `xml:"name"`
	StartDate  string           `xml:"operationalActivityPeriod>OperationalActivityPeriod>activityTime>TimePeriod>beginPosition"`
	Pos        string           `xml:"representativePoint>Point>pos"`
	BelongsTo  []belongsTo      `xml:"belongsTo"`
}

type codeSpaceValue struct {
	CodeSpace string `xml:"codeSpace,attr"`
	Value     string `xml:",chardata"`
}

type belongsTo struct {
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}
