package reply

// mBART-50 language tokens keyed by ISO 639-1 code.
var languageTokens = map[string]string{
	"af": "af_ZA",
	"ar": "ar_AR",
	"az": "az_AZ",
	"bn": "bn_IN",
	"cs": "cs_CZ",
	"de": "de_DE",
	"en": "en_XX",
	"es": "es_XX",
	"et": "et_EE",
	"fa": "fa_IR",
	"fi": "fi_FI",
	"fr": "fr_XX",
	"gl": "gl_ES",
	"gu": "gu_IN",
	"he": "he_IL",
	"hi": "hi_IN",
	"hr": "hr_HR",
	"id": "id_ID",
	"it": "it_IT",
	"ja": "ja_XX",
	"ka": "ka_GE",
	"kk": "kk_KZ",
	"km": "km_KH",
	"ko": "ko_KR",
	"lt": "lt_LT",
	"lv": "lv_LV",
	"mk": "mk_MK",
	"ml": "ml_IN",
	"mn": "mn_MN",
	"mr": "mr_IN",
	"my": "my_MM",
	"ne": "ne_NP",
	"nl": "nl_XX",
	"pl": "pl_PL",
	"ps": "ps_AF",
	"pt": "pt_XX",
	"ro": "ro_RO",
	"ru": "ru_RU",
	"si": "si_LK",
	"sl": "sl_SI",
	"sv": "sv_SE",
	"sw": "sw_KE",
	"ta": "ta_IN",
	"te": "te_IN",
	"th": "th_TH",
	"tl": "tl_XX",
	"tr": "tr_TR",
	"uk": "uk_UA",
	"ur": "ur_PK",
	"vi": "vi_VN",
	"xh": "xh_ZA",
	"zh": "zh_CN",
}

// English names, used by chat backends that take an instruction instead of a token.
var languageNames = map[string]string{
	"af": "Afrikaans",
	"ar": "Arabic",
	"az": "Azerbaijani",
	"bn": "Bengali",
	"cs": "Czech",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"et": "Estonian",
	"fa": "Persian",
	"fi": "Finnish",
	"fr": "French",
	"gl": "Galician",
	"gu": "Gujarati",
	"he": "Hebrew",
	"hi": "Hindi",
	"hr": "Croatian",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ka": "Georgian",
	"kk": "Kazakh",
	"km": "Khmer",
	"ko": "Korean",
	"lt": "Lithuanian",
	"lv": "Latvian",
	"mk": "Macedonian",
	"ml": "Malayalam",
	"mn": "Mongolian",
	"mr": "Marathi",
	"my": "Burmese",
	"ne": "Nepali",
	"nl": "Dutch",
	"pl": "Polish",
	"ps": "Pashto",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"si": "Sinhala",
	"sl": "Slovenian",
	"sv": "Swedish",
	"sw": "Swahili",
	"ta": "Tamil",
	"te": "Telugu",
	"th": "Thai",
	"tl": "Tagalog",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"ur": "Urdu",
	"vi": "Vietnamese",
	"xh": "Xhosa",
	"zh": "Chinese",
}

// Target is the resolved generation language.
type Target struct {
	Code     string
	Token    string
	Name     string
	Fallback bool
}

// Resolve maps language to its model token. Unknown codes resolve to
// defaultLanguage, and to English if that is unknown as well.
func Resolve(language, defaultLanguage string) Target {
	if token, ok := languageTokens[language]; ok {
		return Target{Code: language, Token: token, Name: languageNames[language]}
	}
	if token, ok := languageTokens[defaultLanguage]; ok {
		return Target{Code: defaultLanguage, Token: token, Name: languageNames[defaultLanguage], Fallback: true}
	}
	return Target{Code: "en", Token: languageTokens["en"], Name: languageNames["en"], Fallback: true}
}
