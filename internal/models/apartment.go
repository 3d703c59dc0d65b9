package models

// ApartmentDataset is the file name prefix of the apartment registry export.
const ApartmentDataset = "서울_공동주택"

// ApartmentRoadAddressField is the registry field holding the road address.
const ApartmentRoadAddressField = "APT_RDN_ADDR"

// ApartmentJibunColumn is appended when jibun addresses are looked up.
const ApartmentJibunColumn = "지번주소"

// Column maps a registry field code to its CSV header.
type Column struct {
	Field  string
	Header string
}

// ApartmentColumns is the fixed header order of the apartment export.
var ApartmentColumns = []Column{
	{Field: "SN", Header: "번호"},
	{Field: "APT_CD", Header: "아파트코드"},
	{Field: "APT_NM", Header: "아파트명"},
	{Field: "CMPX_CLSF", Header: "단지분류(아파트,주상복합등)"},
	{Field: "APT_STDG_ADDR", Header: "법정동주소"},
	{Field: "APT_RDN_ADDR", Header: "도로명주소"},
	{Field: "CTPV_ADDR", Header: "시도"},
	{Field: "SGG_ADDR", Header: "시군구"},
	{Field: "EMD_ADDR", Header: "읍면동"},
	{Field: "DADDR", Header: "상세주소"},
	{Field: "RDN_ADDR", Header: "도로명"},
	{Field: "ROAD_DADDR", Header: "도로명상세"},
	{Field: "TELNO", Header: "전화번호"},
	{Field: "FXNO", Header: "팩스번호"},
	{Field: "APT_CMPX", Header: "단지명"},
	{Field: "APT_ATCH_FILE", Header: "첨부파일"},
	{Field: "HH_TYPE", Header: "세대유형"},
	{Field: "MNG_MTHD", Header: "관리방식"},
	{Field: "ROAD_TYPE", Header: "도로유형"},
	{Field: "MN_MTHD", Header: "난방방식"},
	{Field: "WHOL_DONG_CNT", Header: "전체동수"},
	{Field: "TNOHSH", Header: "총세대수"},
	{Field: "BLDR", Header: "건설사"},
	{Field: "DVLR", Header: "시행사"},
	{Field: "USE_APRV_YMD", Header: "사용승인일"},
	{Field: "GFA", Header: "연면적"},
	{Field: "RSDT_XUAR", Header: "주거전용면적"},
	{Field: "MNCO_LEVY_AREA", Header: "관리비부과면적"},
	{Field: "XUAR_HH_STTS60", Header: "전용면적60㎡이하세대수"},
	{Field: "XUAR_HH_STTS85", Header: "전용면적60㎡초과85㎡이하세대수"},
	{Field: "XUAR_HH_STTS135", Header: "전용면적85㎡초과135㎡이하세대수"},
	{Field: "XUAR_HH_STTS136", Header: "전용면적135㎡초과세대수"},
	{Field: "HMPG", Header: "홈페이지"},
	{Field: "REG_YMD", Header: "등록일"},
	{Field: "MDFCN_YMD", Header: "수정일"},
	{Field: "EPIS_MNG_NO", Header: "단지관리번호"},
	{Field: "EPS_MNG_FORM", Header: "관리형태"},
	{Field: "HH_ELCT_CTRT_MTHD", Header: "세대전기계약방식"},
	{Field: "CLNG_MNG_FORM", Header: "청소관리형태"},
	{Field: "BDAR", Header: "건축면적"},
	{Field: "PRK_CNTOM", Header: "주차대수"},
	{Field: "SE_CD", Header: "구분코드"},
	{Field: "CMPX_APRV_DAY", Header: "단지승인일"},
	{Field: "USE_YN", Header: "사용여부"},
	{Field: "MNCO_ULD_YN", Header: "관리비업로드여부"},
	{Field: "XCRD", Header: "좌표X"},
	{Field: "YCRD", Header: "좌표Y"},
	{Field: "CMPX_APLD_DAY", Header: "단지신청일"},
}
