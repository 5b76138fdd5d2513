package dto

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

const dateLayout = "2006-01-02"

// Date 接受RFC3339或2006-01-02两种格式的日期
type Date struct {
	time.Time
}

// ParseDate 解析日期，纯日期按UTC零点
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidParams.WithMessagef("无效的日期: %q", s)
	}
	return t, nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return apperrors.ErrInvalidParams.WithMessage("日期必须是字符串")
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}
