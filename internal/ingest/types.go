package ingest

// Raw record shapes from the Verenigingsloket CMS (aangeboden-producten
// pagina). Field names follow the upstream JSON.

type cmsPage struct {
	Inhoud struct {
		Elementen []DienstRecord `json:"elementen"`
	} `json:"inhoud"`
}

type DienstRecord struct {
	Product Product `json:"product"`
}

type Product struct {
	ID           string         `json:"id"`
	Naam         string         `json:"naam"`
	Type         string         `json:"type"`
	Omschrijving string         `json:"omschrijving"`
	Metadata     Metadata       `json:"metadata"`
	Voorwaarden  VoorwaardeList `json:"voorwaarden"`
	Partners     []Partner      `json:"partners"`
	Themas       ThemaList      `json:"themas"`
}

type Metadata struct {
	LaatsteWijzigingsdatum string `json:"laatsteWijzigingsdatum"`
}

type Partner struct {
	Naam string `json:"naam"`
}

type Thema struct {
	Naam string `json:"naam"`
}

type ThemaList struct {
	Elementen []Thema `json:"elementen"`
}

// VoorwaardeList carries the raw condition entries. Each entry is a loose
// map: a "tekst" key with HTML prose, plus zero or more of the typed keys
// (vorm, regio, thema, vereniging) whose values are a string or a list of
// strings. Unknown keys are ignored.
type VoorwaardeList struct {
	Elementen []map[string]interface{} `json:"elementen"`
}
