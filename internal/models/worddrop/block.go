package worddrop

// Category は単語ブロックの品詞カテゴリを表します。
// クラスター判定は同じCategory同士でのみ行われます。
type Category string

const (
	CategoryNoun      Category = "noun" // 名詞
	CategoryVerb      Category = "verb" // 動詞
	CategoryAdjective Category = "adj"  // 形容詞
)

// Categories はカテゴリの固定集合です。ランダム選択はこの順序のインデックスで行います。
var Categories = []Category{CategoryNoun, CategoryVerb, CategoryAdjective}

// Valid はカテゴリが固定集合に含まれているかを返します。
func (c Category) Valid() bool {
	switch c {
	case CategoryNoun, CategoryVerb, CategoryAdjective:
		return true
	}
	return false
}

// StringToCategory は文字列（"noun", "verb", "adj"）をCategoryに変換します。
// "adjective" も形容詞として受け付けます。
func StringToCategory(s string) (Category, bool) {
	switch s {
	case "noun":
		return CategoryNoun, true
	case "verb":
		return CategoryVerb, true
	case "adj", "adjective":
		return CategoryAdjective, true
	default:
		return "", false
	}
}

// Position はグリッド上のマス目の座標です。Rowは上から、Colは左から数えます。
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Block は単語ブロック1つの状態を表します。
// 落下中は Settled=false、着地してグリッドに書き込まれると Settled=true になります。
type Block struct {
	ID       string   `json:"id"`
	Word     string   `json:"word"`
	Category Category `json:"category"`
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	Settled  bool     `json:"settled"`
}

// Position はブロックの現在位置を返します。
func (b *Block) Position() Position {
	return Position{Row: b.Row, Col: b.Col}
}

// Clone はブロックのコピーを返します。スナップショット作成時に使用します。
func (b *Block) Clone() *Block {
	newB := *b
	return &newB
}
