package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	qschema "github.com/reoring/qschema"
)

// Translator retrieves localized messages for Issue codes. params are the
// Issue's Params; ok is false when the code has no translation, in which case
// the original message is kept.
type Translator interface {
	Message(code string, params map[string]any) (msg string, ok bool)
}

// dictTranslator is the built-in dictionary-based Translator. Templates refer
// to params as {name}.
type dictTranslator map[string]string

func (t dictTranslator) Message(code string, params map[string]any) (string, bool) {
	tmpl, ok := t[code]
	if !ok {
		return "", false
	}
	if len(params) == 0 {
		return tmpl, true
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), true
}

var japanese = dictTranslator{
	qschema.CodeDuplicateID:             "重複した ID が見つかりました",
	qschema.CodeDuplicateLabel:          "重複したラベルがあります: {label}",
	qschema.CodeDuplicateValue:          "重複した値があります: {value}",
	qschema.CodeValueMismatch:           "ラベル {label} と値 {value} が一致しません",
	qschema.CodeListNameMissing:         "リスト名 {list_name} が定義されていません",
	qschema.CodeBlockIDMissing:          "ブロック ID {block_id} が定義されていません",
	qschema.CodeDefaultRouteMissing:     "任意回答の質問にデフォルトのルートがありません",
	qschema.CodeUnroutedOptions:         "ルーティングされていない選択肢があります: {missing_options}",
	qschema.CodeDecimalPlacesUndefined:  "計算された合計の小数桁数は 2 にする必要があります",
	qschema.CodeDecimalPlacesTooLong:    "小数桁数 {decimal_places} が上限 {limit} を超えています",
	qschema.CodeInvalidOffsetDate:       "最小日付が最大日付以降になっています",
	qschema.CodeInvalidDate:             "日付を解釈できません: {value}",
	qschema.CodeInvalidSuggestionURL:    "候補 URL が不正です: {suggestions_url}",
	qschema.CodeDefaultOnMandatory:      "必須回答にデフォルト値は設定できません",
	qschema.CodeMinimumLessThanLimit:    "最小値 {value} がシステム下限 {limit} を下回っています",
	qschema.CodeMaximumGreaterThanLimit: "最大値 {value} がシステム上限 {limit} を超えています",
	qschema.CodeReferencedAnswerInvalid: "参照先の回答 {referenced_id} は範囲の設定に使えません",
	qschema.CodeInvalidRange:            "範囲が不正です (最小 = {min}, 最大 = {max})",
	qschema.CodeReferencedDecimalPlaces: "参照先の回答 {referenced_id} の小数桁数の方が多くなっています",
	qschema.CodeDuplicateKey:            "キー {key} が重複しています",
}

var (
	supported = []language.Tag{language.English, language.Japanese}
	matcher   = language.NewMatcher(supported)
)

// English keeps the messages the checks produce.
var English Translator = dictTranslator{}

// Japanese translates every rule code; structural messages stay in English.
var Japanese Translator = japanese

// Match picks a Translator for an Accept-Language style preference list
// ("ja", "ja-JP,en;q=0.8", ...). Unknown or empty input selects English.
func Match(prefs ...string) Translator {
	_, idx := language.MatchStrings(matcher, prefs...)
	if supported[idx] == language.Japanese {
		return Japanese
	}
	return English
}

// Localize returns a copy of iss with messages translated by tr.
func Localize(iss qschema.Issues, tr Translator) qschema.Issues {
	if tr == nil || len(iss) == 0 {
		return iss
	}
	out := make(qschema.Issues, len(iss))
	for i, is := range iss {
		if msg, ok := tr.Message(is.Code, is.Params); ok {
			is.Message = msg
		}
		out[i] = is
	}
	return out
}
