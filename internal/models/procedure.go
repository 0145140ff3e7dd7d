package models

type ProcedureCategory string // Категория процедуры

const (
	AestheticCategory ProcedureCategory = "aesthetic"
	HairCategory      ProcedureCategory = "hair"
	DentalCategory    ProcedureCategory = "dental"
	BariatricCategory ProcedureCategory = "bariatric"
	EyeCategory       ProcedureCategory = "eye"
)

// Procedure - элемент каталога процедур.
type Procedure struct {
	Key      string            `json:"key"`
	Category ProcedureCategory `json:"category"`
}

// Procedures - фиксированный каталог процедур.
var Procedures = []Procedure{
	{Key: "burun_estetigi_rinoplasti", Category: AestheticCategory},
	{Key: "goz_kapagi_estetigi_blefaroplasti", Category: AestheticCategory},
	{Key: "yuz_germe", Category: AestheticCategory},
	{Key: "meme_buyutme", Category: AestheticCategory},
	{Key: "meme_kucultme", Category: AestheticCategory},
	{Key: "liposuction", Category: AestheticCategory},
	{Key: "karin_germe_abdominoplasti", Category: AestheticCategory},
	{Key: "sac_ekimi_fue", Category: HairCategory},
	{Key: "sac_ekimi_dhi", Category: HairCategory},
	{Key: "sakal_ekimi", Category: HairCategory},
	{Key: "dis_implant", Category: DentalCategory},
	{Key: "zirkonyum_kaplama", Category: DentalCategory},
	{Key: "hollywood_smile", Category: DentalCategory},
	{Key: "tup_mide_sleeve_gastrektomi", Category: BariatricCategory},
	{Key: "mide_bypass", Category: BariatricCategory},
	{Key: "lazer_goz_ameliyati", Category: EyeCategory},
}

// IsKnownProcedure проверяет, есть ли процедура в каталоге.
func IsKnownProcedure(key string) bool {
	for _, p := range Procedures {
		if p.Key == key {
			return true
		}
	}
	return false
}
