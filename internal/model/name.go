// Package model はドメインモデルを定義する。
package model

import "time"

// Gender は名前の性別区分を表す。
type Gender string

const (
	// GenderBoy は男の子向けの名前を示す。
	GenderBoy Gender = "boy"
	// GenderGirl は女の子向けの名前を示す。
	GenderGirl Gender = "girl"
	// GenderUnisex は性別を問わない名前を示す。
	GenderUnisex Gender = "unisex"
)

// IsValid は定義済みの性別区分かどうかを返す。
func (g Gender) IsValid() bool {
	switch g {
	case GenderBoy, GenderGirl, GenderUnisex:
		return true
	}
	return false
}

// Style は名前のスタイル区分を表す。
type Style string

const (
	// StyleTraditional は伝統的な名前を示す。
	StyleTraditional Style = "traditional"
	// StyleModern は現代的な名前を示す。
	StyleModern Style = "modern"
	// StyleUnique は個性的な名前を示す。
	StyleUnique Style = "unique"
	// StyleClassic は古典的な名前を示す。
	StyleClassic Style = "classic"
	// StyleTrendy は流行の名前を示す。
	StyleTrendy Style = "trendy"
)

// IsValid は定義済みのスタイル区分かどうかを返す。
func (s Style) IsValid() bool {
	switch s {
	case StyleTraditional, StyleModern, StyleUnique, StyleClassic, StyleTrendy:
		return true
	}
	return false
}

// Name は提案された赤ちゃんの名前を表す。
// 生成時に確定し、以降は変更されない。同一性はIDで判定する。
type Name struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Gender          Gender    `json:"gender"`
	Origin          string    `json:"origin"`
	Meaning         string    `json:"meaning"`
	PopularityScore int       `json:"popularity_score"` // 0〜100
	Style           Style     `json:"-"`                // カタログ上の抽選属性。APIレスポンスには含めない
	CreatedAt       time.Time `json:"-"`
}

const (
	// FilterCountMin は1回の生成リクエストで要求できる最小件数。
	FilterCountMin = 1
	// FilterCountMax は1回の生成リクエストで要求できる最大件数。
	FilterCountMax = 50
	// FilterCountDefault は件数未指定時のデフォルト値。
	FilterCountDefault = 10
)

// NameFilter は名前生成リクエストのフィルタ条件を表す。
// リクエストパラメータとしてのみ使用し、永続化しない。
type NameFilter struct {
	Gender Gender `json:"gender,omitempty"` // 空 = 指定なし
	Style  Style  `json:"style,omitempty"`  // 空 = 指定なし
	Count  int    `json:"count"`
}

// Normalized は検証済みのフィルタを返す。
// 件数は[FilterCountMin, FilterCountMax]にクランプし、
// 未定義の性別・スタイル値は指定なしとして扱う（エラーにはしない）。
func (f NameFilter) Normalized() NameFilter {
	n := f

	if n.Count == 0 {
		n.Count = FilterCountDefault
	}
	if n.Count < FilterCountMin {
		n.Count = FilterCountMin
	}
	if n.Count > FilterCountMax {
		n.Count = FilterCountMax
	}

	if n.Gender != "" && !n.Gender.IsValid() {
		n.Gender = ""
	}
	if n.Style != "" && !n.Style.IsValid() {
		n.Style = ""
	}

	return n
}
