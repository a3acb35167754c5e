package worddrop

// ScoreUpdate はクリアイベント1回分を適用した後のスコア・ハートです。
type ScoreUpdate struct {
	Score       int  `json:"score"`
	Hearts      int  `json:"hearts"`
	HeartGained bool `json:"heart_gained"`
}

// ScoringPolicy はクリアイベントからスコアとハートを算出します。
// クラスターの大きさには関係なく、クリア1回につき1点です。
type ScoringPolicy struct {
	// HeartThreshold はハートを獲得するスコアの間隔です（0以下ならハートなし）。
	HeartThreshold int
}

// NewScoringPolicy は指定した閾値のScoringPolicyを返します。
func NewScoringPolicy(heartThreshold int) ScoringPolicy {
	return ScoringPolicy{HeartThreshold: heartThreshold}
}

// OnClear はクリアイベントを1回適用します。
// スコアが閾値の正の倍数になった時点でハートが1つ増えます。
func (p ScoringPolicy) OnClear(score, hearts int) ScoreUpdate {
	score++
	upd := ScoreUpdate{Score: score, Hearts: hearts}
	if p.HeartThreshold > 0 && score%p.HeartThreshold == 0 {
		upd.Hearts++
		upd.HeartGained = true
	}
	return upd
}
