// Package model はドメインモデルを定義する。
package model

import "time"

// SharedList はお気に入りリストの共有スナップショットを表す。
// 作成時点のお気に入り（順序付き）を固定し、以降の変更の影響を受けない。
// ShareTokenを知っていれば認証なしで閲覧できる。
type SharedList struct {
	ID         string
	UserID     string
	NameIDs    []string
	ShareToken string
	CreatedAt  time.Time
}
