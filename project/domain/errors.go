package domain

import (
	"errors"
	"strings"
)

// ドメインエラー定義
var (
	// ErrInvalid は不正な値が設定された場合のエラー
	ErrInvalid = errors.New("ドメイン: 不正な値です")

	// ErrNotFound は要求されたリソースが見つからない場合のエラー
	ErrNotFound = errors.New("ドメイン: リソースが見つかりません")
)

// FieldError はフィールド単位の検証エラーです
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationFailure はユーザーが修正可能な検証エラーの集合です。
// Router と Dispatcher だけが捕捉し、正規化された返信に変換します
type ValidationFailure struct {
	Errors []FieldError
}

// NewValidationFailure は単一フィールドの ValidationFailure を作成します
func NewValidationFailure(field, message string) *ValidationFailure {
	return &ValidationFailure{Errors: []FieldError{{Field: field, Message: message}}}
}

// Add はフィールドエラーを追加します
func (v *ValidationFailure) Add(field, message string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Message: message})
}

// Has は指定フィールドのエラーが含まれているかを返します
func (v *ValidationFailure) Has(field string) bool {
	for _, e := range v.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Err はエラーが一件もなければ nil を返します
func (v *ValidationFailure) Err() error {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}
	return v
}

func (v *ValidationFailure) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "検証エラー: " + strings.Join(parts, "; ")
}

// Is により errors.Is(err, ErrInvalid) が成立します
func (v *ValidationFailure) Is(target error) bool {
	return target == ErrInvalid
}

// AsValidationFailure は err の連鎖から ValidationFailure を取り出します
func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return vf, true
	}
	return nil, false
}
