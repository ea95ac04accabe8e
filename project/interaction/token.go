// Package interaction はSlackのインタラクティブ操作を型付きで扱うための部品を提供します。
//
// 複数ステップの操作状態はサーバーに保持せず、UI要素の name / value / state に
// Token として埋め込み、次のイベントで Slack から返される値を Decode して復元します。
package interaction

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedToken は Token を復元できない場合のエラーです（古いUIや改ざん）
var ErrMalformedToken = errors.New("interaction: 不正なトークンです")

const (
	sep    = ':'
	escape = '\\'
)

// Token は複数ステップ操作の継続情報です
type Token struct {
	// Flow は操作の種類（"delete", "project" など）
	Flow string

	// Step は次に実行するステップ番号
	Step int

	// Context はステップ間で引き継ぐID等
	Context []string
}

// NewToken は Token を作成します
func NewToken(flow string, step int, context ...string) Token {
	return Token{Flow: flow, Step: step, Context: context}
}

// Arg は i 番目のコンテキストを返します。存在しなければ空文字
func (t Token) Arg(i int) string {
	if i < 0 || i >= len(t.Context) {
		return ""
	}
	return t.Context[i]
}

// Int64 は i 番目のコンテキストを整数として返します
func (t Token) Int64(i int) (int64, error) {
	v, err := strconv.ParseInt(t.Arg(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: context[%d]=%q", ErrMalformedToken, i, t.Arg(i))
	}
	return v, nil
}

func (t Token) String() string {
	return Encode(t)
}

// Encode は Token を "flow:step:ctx1:ctx2" 形式に変換します。
// 各フィールド中の ':' と '\' は '\' でエスケープします
func Encode(t Token) string {
	var b strings.Builder
	writeField(&b, t.Flow)
	b.WriteByte(sep)
	b.WriteString(strconv.Itoa(t.Step))
	for _, c := range t.Context {
		b.WriteByte(sep)
		writeField(&b, c)
	}
	return b.String()
}

func writeField(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep || s[i] == escape {
			b.WriteByte(escape)
		}
		b.WriteByte(s[i])
	}
}

// Decode は Encode の逆変換です。復元できない場合は ErrMalformedToken を返します
func Decode(s string) (Token, error) {
	if s == "" {
		return Token{}, fmt.Errorf("%w: 空のトークン", ErrMalformedToken)
	}

	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case escape:
			if i+1 >= len(s) {
				return Token{}, fmt.Errorf("%w: 末尾のエスケープ (%q)", ErrMalformedToken, s)
			}
			next := s[i+1]
			if next != sep && next != escape {
				return Token{}, fmt.Errorf("%w: 不正なエスケープ (%q)", ErrMalformedToken, s)
			}
			cur.WriteByte(next)
			i++
		case sep:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(s[i])
		}
	}
	fields = append(fields, cur.String())

	if len(fields) < 2 {
		return Token{}, fmt.Errorf("%w: フィールド不足 (%q)", ErrMalformedToken, s)
	}
	if fields[0] == "" {
		return Token{}, fmt.Errorf("%w: flow が空です (%q)", ErrMalformedToken, s)
	}
	step, err := strconv.Atoi(fields[1])
	if err != nil || step < 0 || strconv.Itoa(step) != fields[1] {
		return Token{}, fmt.Errorf("%w: step が不正です (%q)", ErrMalformedToken, s)
	}

	t := Token{Flow: fields[0], Step: step}
	if len(fields) > 2 {
		t.Context = fields[2:]
	}
	return t, nil
}
