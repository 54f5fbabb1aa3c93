package department

// Built-in departments. These are the launch configuration; the Store overlays
// per-deployment overrides from Redis on top of them.
var builtins = map[string]*Config{
	"dermatology": {
		ID:          "dermatology",
		Name:        "피부과",
		PersonaName: "수아 실장",
		Theme:       "clinic-green",
		Greeting:    "안녕하세요, 피부 고민 상담을 도와드리는 수아 실장입니다.",
		RedFlagKeywords: []string{
			"호흡곤란", "호흡 곤란", "가슴 통증", "흉통", "의식을 잃",
			"심한 출혈", "온몸에 두드러기", "얼굴이 붓", "아나필락시스",
		},
		TrackRules: []TrackRule{
			{Track: "acne", Keywords: []string{"여드름", "트러블", "피지", "뾰루지"}},
			{Track: "pigment", Keywords: []string{"기미", "잡티", "색소", "주근깨"}},
			{Track: "lifting", Keywords: []string{"리프팅", "탄력", "주름", "처짐"}},
		},
		DefaultTrack: "general",
		FocusAreas:   []string{"여드름/트러블", "색소 질환", "리프팅/탄력"},
	},
	"plastic-surgery": {
		ID:          "plastic-surgery",
		Name:        "성형외과",
		PersonaName: "민지 실장",
		Theme:       "clinic-ivory",
		Greeting:    "안녕하세요, 성형 상담을 도와드리는 민지 실장입니다.",
		RedFlagKeywords: []string{
			"호흡곤란", "호흡 곤란", "가슴 통증", "흉통", "의식을 잃",
			"심한 출혈", "고열", "수술 부위가 터",
		},
		TrackRules: []TrackRule{
			{Track: "eyes", Keywords: []string{"쌍꺼풀", "눈매", "눈꺼풀", "안검"}},
			{Track: "nose", Keywords: []string{"코끝", "콧대", "코 성형", "비염이 아니"}},
			{Track: "contour", Keywords: []string{"윤곽", "광대", "사각턱", "턱끝"}},
		},
		DefaultTrack: "general",
		FocusAreas:   []string{"눈 성형", "코 성형", "안면 윤곽"},
	},
	"checkup": {
		ID:          "checkup",
		Name:        "건강검진센터",
		PersonaName: "지윤 매니저",
		Theme:       "clinic-blue",
		Greeting:    "안녕하세요, 건강검진 프로그램 안내를 도와드리는 지윤 매니저입니다.",
		RedFlagKeywords: []string{
			"호흡곤란", "호흡 곤란", "가슴 통증", "흉통", "의식을 잃",
			"심한 출혈", "마비", "말이 어눌", "극단적인 생각",
		},
		TrackRules: []TrackRule{
			{Track: "comprehensive", Keywords: []string{"종합검진", "종합 검진", "프리미엄"}},
			{Track: "cancer", Keywords: []string{"암 검진", "위내시경", "대장내시경", "암검진"}},
			{Track: "corporate", Keywords: []string{"직장", "회사", "단체"}},
		},
		DefaultTrack: "general",
		FocusAreas:   []string{"종합검진 프로그램", "암 검진", "기업 단체검진"},
	},
}

// Builtin returns the built-in config for a department id, or nil.
func Builtin(id string) *Config {
	return builtins[id]
}

// BuiltinIDs lists the ids of all built-in departments.
func BuiltinIDs() []string {
	ids := make([]string, 0, len(builtins))
	for id := range builtins {
		ids = append(ids, id)
	}
	return ids
}
