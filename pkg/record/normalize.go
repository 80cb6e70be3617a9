package record

// Schema 声明一张表里各列的角色：唯一键列（首次发布时间）走时间编码，
// 指定的文本列按长度截断，其余列一律按整数处理。
type Schema struct {
	UniqueKey   string   `json:"uniqueKey" yaml:"uniqueKey"`
	TextColumns []string `json:"textColumns" yaml:"textColumns"`
	MaxTextLen  int      `json:"maxTextLen" yaml:"maxTextLen"`
}

// DefaultSchema 小红书创作者中心导出表的默认列角色
func DefaultSchema() Schema {
	return Schema{
		UniqueKey:   "首次发布时间",
		TextColumns: []string{"笔记标题", "体裁"},
		MaxTextLen:  1000,
	}
}

func (s Schema) IsText(col string) bool {
	for _, c := range s.TextColumns {
		if c == col {
			return true
		}
	}
	return false
}

func (s Schema) IsNumeric(col string) bool {
	return col != s.UniqueKey && !s.IsText(col)
}

// Normalize 把一条导出记录按声明的列清单归一化为远端字段映射。
// 对任何输入都不报错：数值列解析失败取 0，文本列缺失取空串并静默截断，
// 时间列交给 EncodeCivil（空→空值，解析失败→原文透传）。
func Normalize(row Row, columns []string, schema Schema) Fields {
	fields := make(Fields, len(columns))
	for _, col := range columns {
		raw := row.Get(col)
		switch {
		case col == schema.UniqueKey:
			fields[col] = EncodeCivil(raw.AsString())
		case schema.IsText(col):
			fields[col] = Text(raw.AsString()).Truncate(schema.MaxTextLen)
		default:
			fields[col] = Number(float64(raw.AsInt()))
		}
	}
	return fields
}
