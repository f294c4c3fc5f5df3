package domain

// Province describes one of the ten Belgian provinces. Shapes on the map are
// recognized by NUTS2 ID rather than by name; Brussels (BE10) is a region of
// its own and deliberately absent from this table.
type Province struct {
	NameNL  string
	NameEN  string
	ID      string
	Capital string
}

// Region names double as region keys.
const (
	RegionFlemish  = "Vlaams Gewest"
	RegionWalloon  = "Waals Gewest"
	RegionBrussels = "Brussels Hoofdstedelijk Gewest"
)

// BrusselsID is the NUTS2 ID of the capital region's single member.
const BrusselsID = "BE10"

// BrusselsCapital is the expected answer for the capital-only row.
const BrusselsCapital = "Brussel"

// ProvinceKeys lists the ten province keys in stable display order.
var ProvinceKeys = []string{
	"Antwerpen",
	"Limburg",
	"Oost-Vlaanderen",
	"Vlaams-Brabant",
	"West-Vlaanderen",
	"Waals-Brabant",
	"Henegouwen",
	"Luik",
	"Luxemburg",
	"Namen",
}

// Provinces maps province key to its reference record.
var Provinces = map[string]Province{
	"Antwerpen":       {NameNL: "Antwerpen", NameEN: "Antwerp", ID: "BE21", Capital: "Antwerpen"},
	"Limburg":         {NameNL: "Limburg", NameEN: "Limburg", ID: "BE22", Capital: "Hasselt"},
	"Oost-Vlaanderen": {NameNL: "Oost-Vlaanderen", NameEN: "East Flanders", ID: "BE23", Capital: "Gent"},
	"Vlaams-Brabant":  {NameNL: "Vlaams-Brabant", NameEN: "Flemish Brabant", ID: "BE24", Capital: "Leuven"},
	"West-Vlaanderen": {NameNL: "West-Vlaanderen", NameEN: "West Flanders", ID: "BE25", Capital: "Brugge"},
	"Waals-Brabant":   {NameNL: "Waals-Brabant", NameEN: "Walloon Brabant", ID: "BE31", Capital: "Waver"},
	"Henegouwen":      {NameNL: "Henegouwen", NameEN: "Hainaut", ID: "BE32", Capital: "Bergen"},
	"Luik":            {NameNL: "Luik", NameEN: "Liège", ID: "BE33", Capital: "Luik"},
	"Luxemburg":       {NameNL: "Luxemburg", NameEN: "Luxembourg", ID: "BE34", Capital: "Aarlen"},
	"Namen":           {NameNL: "Namen", NameEN: "Namur", ID: "BE35", Capital: "Namen"},
}

// RegionKeys lists the three region keys in stable display order.
var RegionKeys = []string{RegionFlemish, RegionWalloon, RegionBrussels}

// Regions maps region key to its NUTS2 member IDs.
var Regions = map[string][]string{
	RegionFlemish:  {"BE21", "BE22", "BE23", "BE24", "BE25"},
	RegionWalloon:  {"BE31", "BE32", "BE33", "BE34", "BE35"},
	RegionBrussels: {BrusselsID},
}

// Precomputed province-key subsets per multi-member region.
var (
	FlemishKeys []string
	WalloonKeys []string
)

var (
	allowedIDs map[string]struct{}
	idToKey    map[string]string
)

func init() {
	allowedIDs = make(map[string]struct{}, len(Provinces))
	idToKey = make(map[string]string, len(Provinces))
	for key, p := range Provinces {
		allowedIDs[p.ID] = struct{}{}
		idToKey[p.ID] = key
	}
	for _, id := range Regions[RegionFlemish] {
		FlemishKeys = append(FlemishKeys, idToKey[id])
	}
	for _, id := range Regions[RegionWalloon] {
		WalloonKeys = append(WalloonKeys, idToKey[id])
	}
}

// ProvinceByID resolves a NUTS2 ID to a province key.
func ProvinceByID(id string) (string, bool) {
	key, ok := idToKey[id]
	return key, ok
}

// IsProvinceID reports whether id belongs to one of the ten provinces.
func IsProvinceID(id string) bool {
	_, ok := allowedIDs[id]
	return ok
}

// IsRegionMemberID reports whether id belongs to any region, Brussels included.
func IsRegionMemberID(id string) bool {
	if id == BrusselsID {
		return true
	}
	return IsProvinceID(id)
}

// CapitalOf returns the canonical capital of a province key.
func CapitalOf(key string) (string, bool) {
	p, ok := Provinces[key]
	if !ok {
		return "", false
	}
	return p.Capital, true
}

// RegionMembers returns the member IDs of a region key, nil when unknown.
func RegionMembers(region string) []string {
	return Regions[region]
}

// CapitalPool returns the draggable capital names: the ten provincial capitals
// plus Brussels.
func CapitalPool() []string {
	pool := make([]string, 0, len(ProvinceKeys)+1)
	for _, key := range ProvinceKeys {
		pool = append(pool, Provinces[key].Capital)
	}
	return append(pool, BrusselsCapital)
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// InFlemishRegion reports whether a province key belongs to the Flemish region.
func InFlemishRegion(key string) bool { return containsKey(FlemishKeys, key) }

// InWalloonRegion reports whether a province key belongs to the Walloon region.
func InWalloonRegion(key string) bool { return containsKey(WalloonKeys, key) }
