// Package kvstore はクライアントローカルのキーバリュー永続化を提供する。
package kvstore

// Store はキーバリュー永続化のインターフェース。
// セッション情報などの小さな文字列値を同期的に読み書きする。
type Store interface {
	// Get はキーに対応する値を返す。キーが存在しない場合は第2戻り値がfalseになる。
	Get(key string) (string, bool, error)
	// Set はキーに値を書き込む。既存のキーは上書きする。
	Set(key, value string) error
	// Delete はキーを削除する。存在しないキーでもエラーにしない。
	Delete(key string) error
}
