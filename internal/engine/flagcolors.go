package engine

// multiColorFlags lists, by ISO 3166-1 alpha-3 code, the countries
// whose flag uses three or more colors. The flag-colors question keys
// its yes/no answer off membership here, so the list is data, not
// derived at runtime.
var multiColorFlags = map[string]bool{
	"AFG": true, "AGO": true, "AND": true, "ARE": true, "ARG": true,
	"ARM": true, "AUS": true, "AZE": true, "BEL": true, "BEN": true,
	"BFA": true, "BGR": true, "BIH": true, "BLR": true, "BOL": true,
	"BRA": true, "BRB": true, "BWA": true, "CAF": true, "CHL": true,
	"CIV": true, "CMR": true, "COD": true, "COG": true, "COL": true,
	"CPV": true, "CRI": true, "CUB": true, "CZE": true, "DEU": true,
	"DJI": true, "DOM": true, "DZA": true, "ECU": true, "EGY": true,
	"ERI": true, "EST": true, "ETH": true, "FJI": true, "FRA": true,
	"GAB": true, "GBR": true, "GHA": true, "GIN": true, "GMB": true,
	"GNB": true, "GRD": true, "GUY": true, "HRV": true, "HTI": true,
	"HUN": true, "IND": true, "IRL": true, "IRN": true, "IRQ": true,
	"ISL": true, "ITA": true, "JAM": true, "JOR": true, "KEN": true,
	"KHM": true, "KOR": true, "KWT": true, "LAO": true, "LBN": true,
	"LBR": true, "LBY": true, "LKA": true, "LSO": true, "LTU": true,
	"LUX": true, "MDA": true, "MDG": true, "MDV": true, "MEX": true,
	"MLI": true, "MMR": true, "MNG": true, "MOZ": true, "MUS": true,
	"MWI": true, "MYS": true, "NAM": true, "NER": true, "NLD": true,
	"NOR": true, "NPL": true, "NZL": true, "OMN": true, "PAN": true,
	"PHL": true, "PNG": true, "PRK": true, "PRY": true, "ROU": true,
	"RUS": true, "RWA": true, "SDN": true, "SEN": true, "SLE": true,
	"SRB": true, "STP": true, "SVK": true, "SVN": true, "SWZ": true,
	"SYC": true, "TCD": true, "THA": true, "TJK": true, "TTO": true,
	"TZA": true, "UGA": true, "USA": true, "UZB": true, "VEN": true,
	"VUT": true, "YEM": true, "ZAF": true, "ZMB": true, "ZWE": true,
}
