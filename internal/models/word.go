package models

// WordEntry はword_bankテーブルのレコードに対応する構造体です。
type WordEntry struct {
	Category string `json:"category"`
	Word     string `json:"word"`
}

// WordsSaveRequest はカテゴリ単位の単語プール保存APIへのリクエストボディです。
type WordsSaveRequest struct {
	Words []string `json:"words"`
}

// WordBankResponse は単語バンク取得APIのレスポンスです。
type WordBankResponse struct {
	Source     string              `json:"source"` // "database" または "default"
	Categories map[string][]string `json:"categories"`
}
