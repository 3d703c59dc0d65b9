package models

// Row is one scraped table row: the visible cell texts in column order,
// followed by any enrichment fields appended later. It has no key.
type Row []string

// addressColumn is the position of the jibun address in a land permit row.
// The portal table is trusted to keep its column order.
const addressColumn = 1

// Address returns the jibun address cell, or an empty string when the row is too short.
func (r Row) Address() string {
	if len(r) <= addressColumn {
		return ""
	}

	return r[addressColumn]
}

// Clone returns a copy of the row that can be appended to independently.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)

	return out
}

// LandPermitDataset is the file name prefix of the land permit export.
const LandPermitDataset = "토지거래허가구역_서울"

// LandPermitColumns is the fixed CSV header of the land permit export:
// the seven portal columns followed by road address, latitude and longitude.
var LandPermitColumns = []string{
	"연번",
	"주소",
	"지번(지목)",
	"허가년월일",
	"이용목적",
	"이용의무종료일",
	"허가사항",
	"도로명주소",
	"위도",
	"경도",
}
