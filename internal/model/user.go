// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AuthToken はBearer認証用の不透明トークンを表す。
// クライアントからはただの文字列として扱われ、中身に意味を持たせない。
type AuthToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Favorite はユーザーがお気に入りに登録した名前を表す。
// 登録順がそのまま表示順になる。
type Favorite struct {
	UserID    string
	NameID    string
	CreatedAt time.Time
}
