package worddrop

import (
	"github.com/kamstrup/intmap"
)

const (
	DefaultRows           = 15 // グリッドの行数
	DefaultCols           = 10 // グリッドの列数
	DefaultClearThreshold = 4  // クラスターが消去されるのに必要な最小ブロック数
)

// Grid は着地済みブロックを保持する rows × cols の盤面です。
// cells[row][col] でアクセスします。rowは上から、colは左から数えます。
// 各マスは空（nil）か、着地済みのブロックを1つだけ保持します。
type Grid struct {
	rows  int
	cols  int
	cells [][]*Block
}

// NewGrid は空のグリッドを作成します。
// rows, cols が1未満の場合はデフォルトサイズを使用します。
func NewGrid(rows, cols int) *Grid {
	if rows < 1 {
		rows = DefaultRows
	}
	if cols < 1 {
		cols = DefaultCols
	}
	cells := make([][]*Block, rows)
	for r := range cells {
		cells[r] = make([]*Block, cols)
	}
	return &Grid{rows: rows, cols: cols, cells: cells}
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// SpawnCol は新しいピースが出現する列（中央列）です。
func (g *Grid) SpawnCol() int { return g.cols / 2 }

// InBounds は座標がグリッドの範囲内かどうかを返します。
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// At は指定マスのブロックを返します。範囲外または空の場合はnilです。
func (g *Grid) At(row, col int) *Block {
	if !g.InBounds(row, col) {
		return nil
	}
	return g.cells[row][col]
}

// IsOccupied は指定マスにブロックがあるかどうかを返します。
func (g *Grid) IsOccupied(row, col int) bool {
	return g.At(row, col) != nil
}

// IsColumnTopBlocked は列の最上段が埋まっているかを返します。
// ここが埋まっている列へのスポーン・ドロップはオーバーフローになります。
func (g *Grid) IsColumnTopBlocked(col int) bool {
	return g.IsOccupied(0, col)
}

// LandingRow は指定列に上から落としたブロックが止まる行を返します。
// 次の行が埋まっているか、最下段に達した行で止まります。
func (g *Grid) LandingRow(col int) int {
	r := 0
	for r+1 < g.rows && !g.IsOccupied(r+1, col) {
		r++
	}
	return r
}

// Place はブロックを (b.Row, b.Col) に書き込み、着地済みにします。
// 範囲外の座標は無視し、falseを返します。
func (g *Grid) Place(b *Block) bool {
	if b == nil || !g.InBounds(b.Row, b.Col) {
		return false
	}
	b.Settled = true
	g.cells[b.Row][b.Col] = b
	return true
}

// Cluster は (row, col) を起点に、同じカテゴリの着地済みブロックが
// 上下左右（4近傍）でつながった連結成分の座標を返します。
// 起点が空の場合は nil を返します。
func (g *Grid) Cluster(row, col int) []Position {
	seed := g.At(row, col)
	if seed == nil {
		return nil
	}

	visited := intmap.NewSet[int](g.rows * g.cols)
	stack := []Position{{Row: row, Col: col}}
	var cluster []Position

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !g.InBounds(p.Row, p.Col) {
			continue
		}
		if !visited.Add(p.Row*g.cols + p.Col) {
			continue // 訪問済み
		}
		cell := g.cells[p.Row][p.Col]
		if cell == nil || cell.Category != seed.Category {
			continue
		}

		cluster = append(cluster, p)
		stack = append(stack,
			Position{Row: p.Row - 1, Col: p.Col},
			Position{Row: p.Row + 1, Col: p.Col},
			Position{Row: p.Row, Col: p.Col - 1},
			Position{Row: p.Row, Col: p.Col + 1},
		)
	}
	return cluster
}

// Remove は指定されたマスのブロックを取り除き、実際に取り除いた数を返します。
func (g *Grid) Remove(cells []Position) int {
	removed := 0
	for _, p := range cells {
		if g.IsOccupied(p.Row, p.Col) {
			g.cells[p.Row][p.Col] = nil
			removed++
		}
	}
	return removed
}

// Collapse は全ての列を個別に下詰めします。
// 各列のブロックは上下の順序を保ったまま最下段から詰められ、空きは上に残ります。
// 詰めた後のクラスター判定は行いません（連鎖なし）。
func (g *Grid) Collapse() {
	for c := 0; c < g.cols; c++ {
		g.collapseColumn(c)
	}
}

func (g *Grid) collapseColumn(col int) {
	write := g.rows - 1
	for r := g.rows - 1; r >= 0; r-- {
		cell := g.cells[r][col]
		if cell == nil {
			continue
		}
		if write != r {
			g.cells[write][col] = cell
			g.cells[r][col] = nil
			cell.Row = write
		}
		write--
	}
}

// Count は盤面上のブロック数を返します。
func (g *Grid) Count() int {
	n := 0
	for r := range g.cells {
		for _, cell := range g.cells[r] {
			if cell != nil {
				n++
			}
		}
	}
	return n
}
