package worddrop

import (
	"github.com/google/uuid"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models/worddrop"
)

// Randomizer はカテゴリ・単語選択に使う乱数源です。*rand.Rand はこのインターフェースを満たします。
// テストでは固定シードや決め打ちの値を返す実装を注入します。
type Randomizer interface {
	Intn(n int) int
}

// DropResult はハードドロップ1回の結果です。
type DropResult struct {
	Cleared      bool              `json:"cleared"`       // このドロップでクラスター消去が起きたか（1ドロップにつき最大1回）
	Overflow     bool              `json:"overflow"`      // 列の最上段が埋まっていて着地できなかったか
	ClearedCells int               `json:"cleared_cells"` // 消去されたブロック数（スコアには影響しない）
	Landed       worddrop.Position `json:"landed"`        // 着地した位置
}

// Engine はグリッドと落下中のピース（アクティブピース）を所有し、
// スポーン・移動・ハードドロップ・クラスター消去・重力による下詰めを行います。
// タイマーは持たず、呼び出し側（Session）が排他制御を行う前提です。
type Engine struct {
	grid           *worddrop.Grid
	current        *worddrop.Block
	words          worddrop.WordBank
	rng            Randomizer
	newID          func() string
	clearThreshold int
}

// NewEngine は空のグリッドを持つEngineを作成します。
//
// Parameters:
//   rows, cols     : グリッドのサイズ
//   clearThreshold : クラスター消去に必要な最小ブロック数（1未満ならデフォルトの4）
//   words          : カテゴリごとの単語プール（nilならデフォルト）
//   rng            : 乱数源
//   newID          : ブロックID生成関数（nilならUUID）
// Returns:
//   *Engine: 初期化されたEngineのポインタ
func NewEngine(rows, cols, clearThreshold int, words worddrop.WordBank, rng Randomizer, newID func() string) *Engine {
	if clearThreshold < 1 {
		clearThreshold = worddrop.DefaultClearThreshold
	}
	if words == nil {
		words = worddrop.DefaultWordBank()
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Engine{
		grid:           worddrop.NewGrid(rows, cols),
		words:          words,
		rng:            rng,
		newID:          newID,
		clearThreshold: clearThreshold,
	}
}

// Grid は盤面を返します。読み取り専用として扱ってください。
func (e *Engine) Grid() *worddrop.Grid { return e.grid }

// Current はアクティブピースのコピーを返します。ピースがなければnilです。
func (e *Engine) Current() *worddrop.Block {
	if e.current == nil {
		return nil
	}
	return e.current.Clone()
}

// Spawn はランダムなカテゴリと単語で新しいアクティブピースを row 0 のスポーン列に生成します。
// スポーン位置が既に埋まっている場合はピースを生成せず false を返します（オーバーフロー）。
func (e *Engine) Spawn() (*worddrop.Block, bool) {
	cat := worddrop.Categories[e.rng.Intn(len(worddrop.Categories))]
	word := e.pickWord(cat)

	col := e.grid.SpawnCol()
	if e.grid.IsOccupied(0, col) {
		return nil, false
	}

	e.current = &worddrop.Block{
		ID:       e.newID(),
		Word:     word,
		Category: cat,
		Row:      0,
		Col:      col,
	}
	return e.current.Clone(), true
}

func (e *Engine) pickWord(cat worddrop.Category) string {
	pool := e.words.Words(cat)
	if len(pool) == 0 {
		return string(cat)
	}
	return pool[e.rng.Intn(len(pool))]
}

// Move はアクティブピースを左右に1列動かします。
// 移動先がグリッド外、方向が -1/+1 以外、またはピースがない場合は何もせず false を返します。
func (e *Engine) Move(direction int) bool {
	if e.current == nil || (direction != -1 && direction != 1) {
		return false
	}
	next := e.current.Col + direction
	if next < 0 || next >= e.grid.Cols() {
		return false
	}
	e.current.Col = next
	return true
}

// HardDrop はアクティブピースを現在の列の最下の空きマスまで落として固定します。
// 列の最上段が既に埋まっている場合は着地させずオーバーフローを報告します。
// 着地後は着地マスを起点にクラスター判定を行い、閾値以上なら消去して全列を下詰めします。
func (e *Engine) HardDrop() DropResult {
	if e.current == nil {
		return DropResult{}
	}

	col := e.current.Col
	if e.grid.IsColumnTopBlocked(col) {
		return DropResult{Overflow: true}
	}

	piece := e.current
	piece.Row = e.grid.LandingRow(col)
	e.grid.Place(piece)
	e.current = nil

	res := DropResult{Landed: piece.Position()}
	res.ClearedCells = e.resolveClusterAt(res.Landed)
	res.Cleared = res.ClearedCells > 0
	return res
}

// resolveClusterAt は着地マスを起点とするクラスターが閾値以上なら消去し、下詰めします。
// 消去したブロック数を返します（消去なしなら0）。
func (e *Engine) resolveClusterAt(p worddrop.Position) int {
	cluster := e.grid.Cluster(p.Row, p.Col)
	if len(cluster) < e.clearThreshold {
		return 0
	}
	removed := e.grid.Remove(cluster)
	e.grid.Collapse()
	return removed
}
