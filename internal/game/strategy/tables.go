package strategy

import (
	"fmt"
	"strings"

	"BlackjackTrainer/internal/game/table"
)

// 多副牌 H17 基本策略
//
// 列顺序: 庄家明牌 2 3 4 5 6 7 8 9 10 A (J/Q/K 按 10)
//
//	H  = 要牌
//	S  = 停牌
//	D  = 能加倍就加倍，否则要牌
//	Ds = 能加倍就加倍，否则停牌
//	P  = 分牌
//	Ph = 允许分牌后加倍 (DAS) 则分牌，否则要牌
//	Rh = 允许投降则投降，否则要牌
//	Rs = 允许投降则投降，否则停牌

var dealerColumns = []table.Rank{
	table.Two, table.Three, table.Four, table.Five, table.Six,
	table.Seven, table.Eight, table.Nine, table.Ten, table.Ace,
}

var hardRows = map[int]string{
	5:  "H  H  H  H  H  H  H  H  H  H",
	6:  "H  H  H  H  H  H  H  H  H  H",
	7:  "H  H  H  H  H  H  H  H  H  H",
	8:  "H  H  H  H  H  H  H  H  H  H",
	9:  "H  D  D  D  D  H  H  H  H  H",
	10: "D  D  D  D  D  D  D  D  H  H",
	11: "D  D  D  D  D  D  D  D  D  H",
	12: "H  H  S  S  S  H  H  H  H  H",
	13: "S  S  S  S  S  H  H  H  H  H",
	14: "S  S  S  S  S  H  H  H  H  H",
	15: "S  S  S  S  S  H  H  H  Rh H",
	16: "S  S  S  S  S  H  H  Rh Rh Rh",
	17: "S  S  S  S  S  S  S  S  S  S",
	18: "S  S  S  S  S  S  S  S  S  S",
	19: "S  S  S  S  S  S  S  S  S  S",
	20: "S  S  S  S  S  S  S  S  S  S",
	21: "S  S  S  S  S  S  S  S  S  S",
}

var softRows = map[int]string{
	13: "H  H  H  D  D  H  H  H  H  H",
	14: "H  H  H  D  D  H  H  H  H  H",
	15: "H  H  D  D  D  H  H  H  H  H",
	16: "H  H  D  D  D  H  H  H  H  H",
	17: "H  D  D  D  D  H  H  H  H  H",
	18: "S  Ds Ds Ds Ds S  S  H  H  H",
	19: "S  S  S  S  S  S  S  S  S  S",
	20: "S  S  S  S  S  S  S  S  S  S",
	21: "S  S  S  S  S  S  S  S  S  S",
}

// 对子按牌面（J/Q/K 归为 10）
var pairRows = map[table.Rank]string{
	table.Ace:   "P  P  P  P  P  P  P  P  P  P",
	table.Two:   "Ph Ph P  P  P  P  H  H  H  H",
	table.Three: "Ph Ph P  P  P  P  H  H  H  H",
	table.Four:  "H  H  H  Ph Ph H  H  H  H  H",
	table.Five:  "H  H  H  H  H  H  H  H  H  H",
	table.Six:   "Ph P  P  P  P  H  H  H  H  H",
	table.Seven: "P  P  P  P  P  P  H  H  H  H",
	table.Eight: "P  P  P  P  P  P  P  P  P  P",
	table.Nine:  "P  P  P  P  P  S  P  P  S  S",
	table.Ten:   "S  S  S  S  S  S  S  S  S  S",
}

// row 一行十列，下标对应 dealerColumns
type row [10]code

var (
	hardTable = mustParseTable(hardRows)
	softTable = mustParseTable(softRows)
	pairTable = mustParseTable(pairRows)
)

func mustParseTable[K comparable](rows map[K]string) map[K]row {
	out := make(map[K]row, len(rows))
	for k, line := range rows {
		fields := strings.Fields(line)
		if len(fields) != len(dealerColumns) {
			panic(fmt.Sprintf("strategy row %v: want %d columns, got %d", k, len(dealerColumns), len(fields)))
		}
		var r row
		for i, f := range fields {
			c, ok := parseCode(f)
			if !ok {
				panic(fmt.Sprintf("strategy row %v: unknown code %q", k, f))
			}
			r[i] = c
		}
		out[k] = r
	}
	return out
}

// column 庄家明牌所在列
func column(up table.Rank) (int, bool) {
	up = up.Normalize()
	for i, r := range dealerColumns {
		if r == up {
			return i, true
		}
	}
	return 0, false
}

// ChartRow 一行策略表，给界面画表用
type ChartRow struct {
	Label string   `json:"label"`
	Codes []string `json:"codes"`
}

// Chart 三张表的展示形式
type Chart struct {
	Dealer []string   `json:"dealer"`
	Hard   []ChartRow `json:"hard"`
	Soft   []ChartRow `json:"soft"`
	Pairs  []ChartRow `json:"pairs"`
}

func toChartRow(label string, r row) ChartRow {
	codes := make([]string, len(r))
	for i, c := range r {
		codes[i] = c.String()
	}
	return ChartRow{Label: label, Codes: codes}
}

// BuildChart 按固定顺序输出（硬牌 5-21，软牌 13-21，对子 A,2..10）
func BuildChart() Chart {
	ch := Chart{}
	for _, r := range dealerColumns {
		ch.Dealer = append(ch.Dealer, r.String())
	}
	for v := 5; v <= 21; v++ {
		ch.Hard = append(ch.Hard, toChartRow(fmt.Sprintf("%d", v), hardTable[v]))
	}
	for v := 13; v <= 21; v++ {
		ch.Soft = append(ch.Soft, toChartRow(fmt.Sprintf("A,%d", v-11), softTable[v]))
	}
	for _, r := range []table.Rank{table.Ace, table.Two, table.Three, table.Four, table.Five,
		table.Six, table.Seven, table.Eight, table.Nine, table.Ten} {
		ch.Pairs = append(ch.Pairs, toChartRow(r.String()+","+r.String(), pairTable[r]))
	}
	return ch
}
