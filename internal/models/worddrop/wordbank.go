package worddrop

import "fmt"

// WordBank はカテゴリごとの単語プールです。
// スポーン時にカテゴリを選んだあと、そのカテゴリのプールから単語を1つ選びます。
type WordBank map[Category][]string

// defaultWords はDBに単語が登録されていない場合に使う小さな単語プールです。
var defaultWords = map[Category][]string{
	CategoryNoun:      {"cat", "tree", "river", "cloud", "lemon", "desk", "book", "music", "stone", "car"},
	CategoryVerb:      {"run", "jump", "read", "code", "sing", "draw", "spin", "bake", "swim", "play"},
	CategoryAdjective: {"red", "fast", "soft", "loud", "bright", "sweet", "round", "cold", "brave", "clean"},
}

// DefaultWordBank はデフォルト単語プールのコピーを返します。
// 呼び出し側で変更しても元のプールには影響しません。
func DefaultWordBank() WordBank {
	bank := make(WordBank, len(defaultWords))
	for cat, words := range defaultWords {
		bank[cat] = append([]string(nil), words...)
	}
	return bank
}

// Validate は全てのカテゴリに1つ以上の単語があるかを検証します。
func (wb WordBank) Validate() error {
	for _, cat := range Categories {
		if len(wb[cat]) == 0 {
			return fmt.Errorf("カテゴリ %q の単語プールが空です", cat)
		}
	}
	return nil
}

// Words は指定カテゴリの単語プールを返します。
func (wb WordBank) Words(cat Category) []string {
	return wb[cat]
}
