package worddrop

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGrid は文字列の行からグリッドを組み立てます。
// 'N' = 名詞, 'V' = 動詞, 'A' = 形容詞, '.' = 空マス。
func buildGrid(t *testing.T, rows []string) *Grid {
	t.Helper()
	require.NotEmpty(t, rows)
	g := NewGrid(len(rows), len(rows[0]))
	for r, line := range rows {
		require.Len(t, line, g.Cols(), "row %d has wrong width", r)
		for c, ch := range line {
			var cat Category
			switch ch {
			case 'N':
				cat = CategoryNoun
			case 'V':
				cat = CategoryVerb
			case 'A':
				cat = CategoryAdjective
			default:
				continue
			}
			g.Place(&Block{ID: fmt.Sprintf("%d_%d", r, c), Word: string(ch), Category: cat, Row: r, Col: c})
		}
	}
	return g
}

func TestNewGrid(t *testing.T) {
	g := NewGrid(DefaultRows, DefaultCols)
	assert.Equal(t, 15, g.Rows())
	assert.Equal(t, 10, g.Cols())
	assert.Equal(t, 5, g.SpawnCol())
	assert.Equal(t, 0, g.Count())

	// 不正なサイズはデフォルトにフォールバック
	g = NewGrid(0, -1)
	assert.Equal(t, DefaultRows, g.Rows())
	assert.Equal(t, DefaultCols, g.Cols())
}

func TestGrid_AtOutOfBounds(t *testing.T) {
	g := NewGrid(3, 3)
	assert.Nil(t, g.At(-1, 0))
	assert.Nil(t, g.At(0, 3))
	assert.False(t, g.IsOccupied(3, 0))
	assert.False(t, g.Place(&Block{Row: 5, Col: 0}))
	assert.False(t, g.Place(nil))
}

func TestGrid_LandingRow(t *testing.T) {
	g := buildGrid(t, []string{
		"...",
		"...",
		".N.",
		".V.",
		"AVN",
	})
	assert.Equal(t, 3, g.LandingRow(0), "lands on top of the bottom block")
	assert.Equal(t, 1, g.LandingRow(1), "lands above the stack")
	assert.Equal(t, 3, g.LandingRow(2))

	empty := NewGrid(5, 1)
	assert.Equal(t, 4, empty.LandingRow(0), "empty column lands on the bottom row")
}

func TestGrid_IsColumnTopBlocked(t *testing.T) {
	g := buildGrid(t, []string{
		"N..",
		"N..",
	})
	assert.True(t, g.IsColumnTopBlocked(0))
	assert.False(t, g.IsColumnTopBlocked(1))
}

func TestGrid_Cluster(t *testing.T) {
	g := buildGrid(t, []string{
		"....",
		"N...",
		"NN.V",
		"VNNA",
	})

	cluster := g.Cluster(1, 0)
	assert.Len(t, cluster, 5)
	assert.ElementsMatch(t, []Position{
		{Row: 1, Col: 0}, {Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 3, Col: 1}, {Row: 3, Col: 2},
	}, cluster)

	assert.Len(t, g.Cluster(2, 3), 1, "single verb is its own cluster")
	assert.Nil(t, g.Cluster(0, 0), "empty seed has no cluster")
}

func TestGrid_ClusterIgnoresDiagonals(t *testing.T) {
	g := buildGrid(t, []string{
		"N.N",
		".N.",
		"N.N",
	})
	assert.Len(t, g.Cluster(1, 1), 1)
}

func TestGrid_RemoveAndCollapse(t *testing.T) {
	g := buildGrid(t, []string{
		"A..",
		"V..",
		"N.V",
		"N.A",
		"N.N",
	})
	above := []*Block{g.At(0, 0), g.At(1, 0)}

	removed := g.Remove([]Position{{Row: 2, Col: 0}, {Row: 3, Col: 0}, {Row: 4, Col: 0}, {Row: 0, Col: 1}})
	assert.Equal(t, 3, removed, "empty cells are not counted")

	g.Collapse()

	// 列0: A, V が順序を保って最下段へ
	assert.Same(t, above[0], g.At(3, 0))
	assert.Same(t, above[1], g.At(4, 0))
	assert.Equal(t, 3, above[0].Row)
	assert.Equal(t, 4, above[1].Row)
	for r := 0; r < 3; r++ {
		assert.Nil(t, g.At(r, 0))
	}

	// 列2 は隙間がないので変化しない
	assert.Equal(t, CategoryVerb, g.At(2, 2).Category)
	assert.Equal(t, CategoryNoun, g.At(4, 2).Category)
	assert.Equal(t, 5, g.Count())
}

func TestGrid_CollapseKeepsColumnsContiguous(t *testing.T) {
	g := buildGrid(t, []string{
		"NVA",
		"...",
		"A.N",
		"...",
		"V..",
	})
	g.Collapse()

	for c := 0; c < g.Cols(); c++ {
		seenBlock := false
		for r := 0; r < g.Rows(); r++ {
			if g.IsOccupied(r, c) {
				seenBlock = true
				assert.Equal(t, r, g.At(r, c).Row, "row field follows the cell")
			} else {
				assert.False(t, seenBlock, "gap below a block in column %d", c)
			}
		}
	}
	assert.Equal(t, "0_0", g.At(2, 0).ID)
	assert.Equal(t, "2_0", g.At(3, 0).ID)
	assert.Equal(t, "4_0", g.At(4, 0).ID)
}

func TestStringToCategory(t *testing.T) {
	cat, ok := StringToCategory("adjective")
	assert.True(t, ok)
	assert.Equal(t, CategoryAdjective, cat)

	_, ok = StringToCategory("adverb")
	assert.False(t, ok)
	assert.False(t, Category("adverb").Valid())
}

func TestWordBank_Validate(t *testing.T) {
	bank := DefaultWordBank()
	require.NoError(t, bank.Validate())

	bank[CategoryVerb] = nil
	assert.Error(t, bank.Validate())

	// コピーなので元のデフォルトは壊れない
	assert.NoError(t, DefaultWordBank().Validate())
}
