package models

// District identifies one of Seoul's sub-municipal districts.
type District struct {
	Code string // Code is the 5-digit administrative code.
	Name string // Name is the Korean district label.
}

// CitywideCode is the select option covering the whole city; it is never crawled on its own.
const CitywideCode = "11000"

// SeoulDistricts is the literal list of Seoul's 25 districts, used when the
// portal does not expose its district select options.
var SeoulDistricts = []District{
	{Code: "11110", Name: "종로구"},
	{Code: "11140", Name: "중구"},
	{Code: "11170", Name: "용산구"},
	{Code: "11200", Name: "성동구"},
	{Code: "11215", Name: "광진구"},
	{Code: "11230", Name: "동대문구"},
	{Code: "11260", Name: "중랑구"},
	{Code: "11290", Name: "성북구"},
	{Code: "11305", Name: "강북구"},
	{Code: "11320", Name: "도봉구"},
	{Code: "11350", Name: "노원구"},
	{Code: "11380", Name: "은평구"},
	{Code: "11410", Name: "서대문구"},
	{Code: "11440", Name: "마포구"},
	{Code: "11470", Name: "양천구"},
	{Code: "11500", Name: "강서구"},
	{Code: "11530", Name: "구로구"},
	{Code: "11545", Name: "금천구"},
	{Code: "11560", Name: "영등포구"},
	{Code: "11590", Name: "동작구"},
	{Code: "11620", Name: "관악구"},
	{Code: "11650", Name: "서초구"},
	{Code: "11680", Name: "강남구"},
	{Code: "11710", Name: "송파구"},
	{Code: "11740", Name: "강동구"},
}
