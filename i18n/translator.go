package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "want" or "got").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator. Messages may
// reference data entries as {key}; unknown keys stay verbatim.
type dictTranslator struct{ lang string }

var dict = map[string]map[string]string{
	"en": {
		"unrecognized_descriptor": "unrecognized output descriptor",
		"empty_type_target":       "output type is uninhabited",
		"infinite_sequence":       "cannot collect an infinite sequence",
		"empty_elem_undetermined": "cannot determine the element type of an empty sequence",
		"dimension_mismatch":      "dimension mismatch: want {want}, got {got}",
		"arity":                   "arity mismatch: want {want}, got {got}",
		"element_conversion":      "cannot convert {value} ({type}) to {target}",
		"invalid_type":            "invalid type",
		"parse_error":             "parse error",
	},
	"ja": {
		"unrecognized_descriptor": "出力型の指定を認識できません",
		"empty_type_target":       "出力型が空の型です",
		"infinite_sequence":       "無限シーケンスは収集できません",
		"empty_elem_undetermined": "空シーケンスの要素型を決定できません",
		"dimension_mismatch":      "次元が一致しません: 期待 {want}, 実際 {got}",
		"arity":                   "要素数が一致しません: 期待 {want}, 実際 {got}",
		"element_conversion":      "{value} ({type}) を {target} に変換できません",
		"invalid_type":            "型が不正です",
		"parse_error":             "解析エラー",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dict[t.lang][code]
	if !ok {
		return code
	}
	if !strings.Contains(msg, "{") {
		return msg
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
