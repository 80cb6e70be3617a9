package record

import (
	"strings"
	"time"
)

// CivilLayout 导出文件使用的全角中文时间格式
const CivilLayout = "2006年01月02日15时04分05秒"

// civilZone 导出侧固定按 UTC+8 civil time 解释，远端存储为 UTC 毫秒时间戳
var civilZone = time.FixedZone("UTC+8", 8*60*60)

var fallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
}

// EncodeCivil 把本地时间文本编码为远端的 UTC 毫秒时间戳。
// 空输入返回空值；无法解析时原文以文本形式透传，调用方必须容忍整数槽位里出现字符串。
func EncodeCivil(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Empty
	}
	if t, err := time.ParseInLocation(CivilLayout, s, civilZone); err == nil {
		return Number(float64(t.UnixMilli()))
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, civilZone); err == nil {
			return Number(float64(t.UnixMilli()))
		}
	}
	return Text(raw)
}

// DecodeCivil 反方向：UTC 毫秒时间戳还原为全角格式的本地时间文本
func DecodeCivil(millis int64) string {
	return time.UnixMilli(millis).In(civilZone).Format(CivilLayout)
}

// CivilKey 把任意形态的唯一键列值规整为全角文本形式，用于本地与远端的键匹配。
// 已是全角格式的原样使用，可解析的其他格式重排为全角，解析失败的原样返回。
func CivilKey(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "年") {
		return s
	}
	if v := EncodeCivil(s); v.Kind() == KindNumber {
		return DecodeCivil(v.AsInt())
	}
	return s
}

// KeyFromRemote 由远端字段值推导本地文本键：
// 数值按 UTC 毫秒时间戳解码，文本原样使用
func KeyFromRemote(v interface{}) string {
	val := FromAny(v)
	switch val.Kind() {
	case KindNumber:
		return DecodeCivil(val.AsInt())
	case KindText:
		return val.AsString()
	default:
		return ""
	}
}
