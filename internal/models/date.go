package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// DateLayout はDueDateの入出力フォーマット (yyyy-MM-dd) です。
const DateLayout = "2006-01-02"

// Date は時刻を持たない暦日を表します。内部的には UTC の 0 時として保持します。
type Date struct {
	time.Time
}

// NewDate は年月日から Date を作成します。
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf は t の UTC 上の暦日を返します。
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

// ParseDate は yyyy-MM-dd 形式の文字列を Date に変換します。
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays は日数を加算した Date を返します。
func (d Date) AddDays(days int) Date {
	return Date{Time: d.Time.AddDate(0, 0, days)}
}

// IsFutureOf は d が now の暦日より後 (翌日以降) であるかを返します。
func (d Date) IsFutureOf(now time.Time) bool {
	return d.Time.After(DateOf(now).Time)
}

// MarshalJSON は yyyy-MM-dd 形式で出力します。
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON は yyyy-MM-dd 形式の文字列を受け付けます。
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return fmt.Errorf("date must be a string in %s format", DateLayout)
	}
	parsed, err := ParseDate(unquoted)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value は database/sql 用に DATE カラムへ書き込む値を返します。
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan は DATE カラムの値を読み込みます。parseTime の有無どちらにも対応します。
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}
