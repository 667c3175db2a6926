package location

// country is a canonical country name and the folded spellings that name it.
// An alias written in capitals only matches that exact case.
type country struct {
	name    string
	aliases []string
}

// city is a well known city that pins its country
type city struct {
	name    string
	country string
	aliases []string
}

var countries = []country{
	{"Spain", []string{"spain", "espana"}},
	{"Mexico", []string{"mexico"}},
	{"Argentina", []string{"argentina"}},
	{"Chile", []string{"chile"}},
	{"Colombia", []string{"colombia"}},
	{"Peru", []string{"peru"}},
	{"Venezuela", []string{"venezuela"}},
	{"Ecuador", []string{"ecuador"}},
	{"Bolivia", []string{"bolivia"}},
	{"Paraguay", []string{"paraguay"}},
	{"Uruguay", []string{"uruguay"}},
	{"Costa Rica", []string{"costa rica"}},
	{"Panama", []string{"panama"}},
	{"Guatemala", []string{"guatemala"}},
	{"Honduras", []string{"honduras"}},
	{"Nicaragua", []string{"nicaragua"}},
	{"El Salvador", []string{"el salvador"}},
	{"Dominican Republic", []string{"dominican republic", "republica dominicana"}},
	{"Cuba", []string{"cuba"}},
	{"Puerto Rico", []string{"puerto rico"}},
	{"United States", []string{"united states", "USA", "estados unidos", "eeuu"}},
	{"Canada", []string{"canada"}},
	{"Brazil", []string{"brazil", "brasil"}},
	{"Portugal", []string{"portugal"}},
	{"France", []string{"france", "francia"}},
	{"Germany", []string{"germany", "alemania", "deutschland"}},
	{"Italy", []string{"italy", "italia"}},
	{"United Kingdom", []string{"united kingdom", "uk", "reino unido"}},
	{"China", []string{"china"}},
	{"India", []string{"india"}},
	{"Japan", []string{"japan", "japon"}},
	{"Australia", []string{"australia"}},
	{"New Zealand", []string{"new zealand", "nueva zelanda"}},
}

var cities = []city{
	{"Madrid", "Spain", []string{"madrid"}},
	{"Barcelona", "Spain", []string{"barcelona"}},
	{"Valencia", "Spain", []string{"valencia"}},
	{"Sevilla", "Spain", []string{"sevilla", "seville"}},
	{"Bilbao", "Spain", []string{"bilbao"}},
	{"Zaragoza", "Spain", []string{"zaragoza"}},
	{"Málaga", "Spain", []string{"malaga"}},
	{"Lisboa", "Portugal", []string{"lisboa", "lisbon"}},
	{"Porto", "Portugal", []string{"porto"}},
	{"Ciudad de México", "Mexico", []string{"ciudad de mexico", "mexico city", "cdmx"}},
	{"Monterrey", "Mexico", []string{"monterrey"}},
	{"Bogotá", "Colombia", []string{"bogota"}},
	{"Medellín", "Colombia", []string{"medellin"}},
	{"Lima", "Peru", []string{"lima"}},
	{"Santiago de Chile", "Chile", []string{"santiago de chile"}},
	{"Buenos Aires", "Argentina", []string{"buenos aires"}},
	{"Quito", "Ecuador", []string{"quito"}},
	{"Guayaquil", "Ecuador", []string{"guayaquil"}},
	{"Caracas", "Venezuela", []string{"caracas"}},
	{"Montevideo", "Uruguay", []string{"montevideo"}},
	{"Asunción", "Paraguay", []string{"asuncion"}},
	{"São Paulo", "Brazil", []string{"sao paulo"}},
	{"Rio de Janeiro", "Brazil", []string{"rio de janeiro"}},
	{"Santo Domingo", "Dominican Republic", []string{"santo domingo"}},
	{"Tegucigalpa", "Honduras", []string{"tegucigalpa"}},
	{"Managua", "Nicaragua", []string{"managua"}},
	{"San Salvador", "El Salvador", []string{"san salvador"}},
	{"Paris", "France", []string{"paris"}},
	{"Berlin", "Germany", []string{"berlin"}},
	{"Munich", "Germany", []string{"munich", "munchen"}},
	{"Milan", "Italy", []string{"milan", "milano"}},
	{"Rome", "Italy", []string{"rome", "roma"}},
	{"London", "United Kingdom", []string{"london", "londres"}},
	{"Toronto", "Canada", []string{"toronto"}},
	{"Montreal", "Canada", []string{"montreal"}},
	{"New York", "United States", []string{"new york", "nueva york"}},
	{"Houston", "United States", []string{"houston"}},
	{"Miami", "United States", []string{"miami"}},
	{"Shanghai", "China", []string{"shanghai"}},
	{"Beijing", "China", []string{"beijing", "pekin"}},
	{"Mumbai", "India", []string{"mumbai"}},
	{"New Delhi", "India", []string{"new delhi", "delhi"}},
	{"Tokyo", "Japan", []string{"tokyo", "tokio"}},
	{"Sydney", "Australia", []string{"sydney"}},
}

// countryTLDs maps the last label of a sender domain to a country
var countryTLDs = []struct {
	tld     string
	country string
}{
	{"es", "Spain"}, {"mx", "Mexico"}, {"ar", "Argentina"}, {"cl", "Chile"}, {"co", "Colombia"},
	{"pe", "Peru"}, {"ve", "Venezuela"}, {"ec", "Ecuador"}, {"bo", "Bolivia"}, {"py", "Paraguay"},
	{"uy", "Uruguay"}, {"cr", "Costa Rica"}, {"pa", "Panama"}, {"gt", "Guatemala"}, {"hn", "Honduras"},
	{"ni", "Nicaragua"}, {"sv", "El Salvador"}, {"do", "Dominican Republic"}, {"cu", "Cuba"},
	{"pr", "Puerto Rico"}, {"us", "United States"}, {"ca", "Canada"}, {"br", "Brazil"}, {"pt", "Portugal"},
	{"fr", "France"}, {"de", "Germany"}, {"it", "Italy"}, {"uk", "United Kingdom"}, {"cn", "China"},
	{"in", "India"}, {"jp", "Japan"}, {"au", "Australia"}, {"nz", "New Zealand"},
}

// signatureMarkers open a signature block when a line starts with them
var signatureMarkers = []string{
	"--", "regards", "best regards", "kind regards", "best wishes", "sincerely", "thanks", "thank you",
	"saludos", "un saludo", "saludos cordiales", "atentamente", "cordialmente", "gracias", "muchas gracias",
}
