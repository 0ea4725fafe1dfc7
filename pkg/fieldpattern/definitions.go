package fieldpattern

// Definition declares a field before compilation. Match is the label
// expression. Capture overrides the default value expression of the kind.
type Definition struct {
	Key     string
	Label   string
	Match   string
	Capture string
	Aliases []string
}

const (
	// numberCapture accepts digits with either decimal separator
	numberCapture = `([0-9][0-9.,]*)`
	// wordCapture takes one free-text token, ending at whitespace or punctuation
	wordCapture = `([\p{L}][\p{L}'’-]*)`
	ageCapture  = `([0-9]+(?:[.,][0-9]+)?(?:[ \t]*(?:anos?|meses|m[eê]s|dias?))?)`

	// the label may close a parenthesis, as in "Volume Corpuscular Médio (VCM)",
	// and an optional parenthesized unit may sit between label and value
	clinicalSeparator = `\)?(?:\s*\([^)]*\))?\s*:?\s*`
	// patient values must be on the label's line
	patientSeparator = `[ \t]*:?[ \t]*`
)

func (d Definition) pattern(kind Kind) string {
	switch kind {
	case Clinical:
		capture := numberCapture
		if d.Capture != "" {
			capture = d.Capture
		}
		return `(?i)` + d.Match + clinicalSeparator + capture
	default:
		capture := wordCapture
		if d.Capture != "" {
			capture = d.Capture
		}
		return `(?i)` + d.Match + patientSeparator + capture
	}
}

var clinicalDefinitions = []Definition{
	{Key: "hemacias", Label: "Hemácias", Match: `(?:hem[aá]cias?|eritr[oó]citos)`,
		Aliases: []string{"hemacia", "eritrocitos", "eritrocito", "rbc"}},
	{Key: "hemoglobina", Label: "Hemoglobina", Match: `hemoglobina`,
		Aliases: []string{"hb", "hgb"}},
	{Key: "hematocrito", Label: "Hematócrito", Match: `hemat[oó]crito`,
		Aliases: []string{"ht", "hct", "volume_globular", "vg"}},
	{Key: "vcm", Label: "VCM", Match: `\bvcm`,
		Aliases: []string{"mcv"}},
	{Key: "hcm", Label: "HCM", Match: `\bhcm`,
		Aliases: []string{"mch"}},
	{Key: "chcm", Label: "CHCM", Match: `\bchcm`,
		Aliases: []string{"mchc"}},
	{Key: "leucocitos", Label: "Leucócitos", Match: `leuc[oó]citos?(?:\s+totais)?`,
		Aliases: []string{"leucocito", "leucocitos_totais", "wbc"}},
	{Key: "segmentados", Label: "Segmentados", Match: `(?:neutr[oó]filos\s+)?segmentados?`,
		Aliases: []string{"segmentado", "neutrofilos_segmentados"}},
	{Key: "linfocitos", Label: "Linfócitos", Match: `linf[oó]citos?`,
		Aliases: []string{"linfocito"}},
	{Key: "monocitos", Label: "Monócitos", Match: `mon[oó]citos?`,
		Aliases: []string{"monocito"}},
	{Key: "eosinofilos", Label: "Eosinófilos", Match: `eosin[oó]filos?`,
		Aliases: []string{"eosinofilo"}},
	{Key: "basofilos", Label: "Basófilos", Match: `bas[oó]filos?`,
		Aliases: []string{"basofilo"}},
	{Key: "plaquetas", Label: "Plaquetas", Match: `plaquetas?`,
		Aliases: []string{"plaqueta", "plt"}},
	{Key: "proteina_total", Label: "Proteína Total", Match: `prote[ií]nas?\s*(?:plasm[aá]ticas?\s*)?tota(?:l|is)`,
		Aliases: []string{"proteina", "proteinas_totais", "proteina_plasmatica_total", "ppt"}},
	{Key: "reticulocitos", Label: "Reticulócitos", Match: `retic[uú]l[oó]citos?`,
		Aliases: []string{"reticulocito"}},
}

var patientDefinitions = []Definition{
	{Key: "nome", Label: "Nome",
		Match:   `(?:(?:nome[ \t]+do[ \t]+)?(?:paciente|animal)|\bnome[ \t]*:)`,
		Aliases: []string{"nome_paciente", "nome_do_paciente", "paciente", "animal", "nome_do_animal"}},
	{Key: "tutor", Label: "Tutor",
		Match:   `(?:nome[ \t]+do[ \t]+)?(?:tutor|propriet[aá]rio|respons[aá]vel)(?:\(a\))?`,
		Aliases: []string{"nome_tutor", "nome_do_tutor", "proprietario", "responsavel"}},
	{Key: "raca", Label: "Raça", Match: `\bra[cç]a`},
	{Key: "idade", Label: "Idade", Match: `\bidade`, Capture: ageCapture},
	{Key: "sexo", Label: "Sexo", Match: `\bsexo`,
		Capture: `(macho|f[eê]mea|m|f)\b`},
	{Key: "especie", Label: "Espécie", Match: `esp[eé]cie`,
		Capture: `(c[aã]o|canin[oa]|cachorro|gato|felin[oa])\b`,
		Aliases: []string{"species"}},
}
