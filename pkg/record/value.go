package record

import (
	"strings"

	"github.com/spf13/cast"
)

// Kind 字段值的类型标签
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
)

// Value 单元格/字段值的显式变体表示。
// 数值、文本和空值经过同一批字段槽位流转，比较逻辑依赖这里的标签而不是运行时断言。
type Value struct {
	kind Kind
	num  float64
	text string
}

var Empty = Value{}

func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// FromCell 由导出文件的原始单元格内容构造 Value。
// 空白单元格视为空值，其余一律先按文本保留，数值语义留给比较/归一化阶段。
func FromCell(raw string) Value {
	if strings.TrimSpace(raw) == "" {
		return Empty
	}
	return Text(raw)
}

// FromAny 由远端返回的 JSON 字段值构造 Value
func FromAny(v interface{}) Value {
	if v == nil {
		return Empty
	}
	switch val := v.(type) {
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case string:
		return FromCell(val)
	case bool:
		if val {
			return Number(1)
		}
		return Number(0)
	default:
		return FromCell(cast.ToString(val))
	}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsEmpty() bool {
	return v.kind == KindEmpty
}

// AsInt 数值强转：空值与无法解析的文本一律取 0
func (v Value) AsInt() int64 {
	switch v.kind {
	case KindNumber:
		return int64(v.num)
	case KindText:
		f, err := cast.ToFloat64E(strings.TrimSpace(v.text))
		if err != nil {
			return 0
		}
		return int64(f)
	default:
		return 0
	}
}

// AsString 文本强转：空值取空串，数值按整数/浮点原样格式化
func (v Value) AsString() string {
	switch v.kind {
	case KindNumber:
		if v.num == float64(int64(v.num)) {
			return cast.ToString(int64(v.num))
		}
		return cast.ToString(v.num)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// JSON 转换为远端接口可接受的载荷值
func (v Value) JSON() interface{} {
	switch v.kind {
	case KindNumber:
		return int64(v.num)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Truncate 文本按字符数截断，数值与空值原样返回
func (v Value) Truncate(max int) Value {
	if v.kind != KindText {
		return v
	}
	runes := []rune(v.text)
	if len(runes) <= max {
		return v
	}
	return Text(string(runes[:max]))
}

// Row 一条导出记录：列名到原始值的映射
type Row map[string]Value

// Get 取列值，列缺失视为空值
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Empty
}

// Fields 归一化后的远端字段映射
type Fields map[string]Value

// JSONMap 转换为 batch_create/batch_update 载荷里的 fields 对象
func (f Fields) JSONMap() map[string]interface{} {
	out := make(map[string]interface{}, len(f))
	for col, v := range f {
		out[col] = v.JSON()
	}
	return out
}
