package notes

import (
	"fmt"
	"io"
)

// Outcome 一次同步的终态。对应的 STATUS 令牌与退出码是对外契约，
// 由调用进程按行 grep，新增取值时不得改动既有令牌文本和退出码。
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSuccessWithExportWarning
	OutcomeFeishuUpdateFailed
	OutcomeFeishuUpdateFailedWithExportWarning
	OutcomeException
	OutcomeNoData
	OutcomeCSVSaveFailed
	OutcomeFeishuTokenFailed
	OutcomeExportFailedAndNoData
	OutcomeExportFailedAndNoRecentExcel
	OutcomeNoRecentExcel
	OutcomeUserInterrupted
)

var outcomeTokens = map[Outcome]string{
	OutcomeSuccess:                             "SUCCESS",
	OutcomeSuccessWithExportWarning:            "SUCCESS_WITH_EXPORT_WARNING",
	OutcomeFeishuUpdateFailed:                  "FEISHU_UPDATE_FAILED",
	OutcomeFeishuUpdateFailedWithExportWarning: "FEISHU_UPDATE_FAILED_WITH_EXPORT_WARNING",
	OutcomeException:                           "EXCEPTION",
	OutcomeNoData:                              "NO_DATA",
	OutcomeCSVSaveFailed:                       "CSV_SAVE_FAILED",
	OutcomeFeishuTokenFailed:                   "FEISHU_TOKEN_FAILED",
	OutcomeExportFailedAndNoData:               "DATA_EXPORT_FAILED_AND_NO_DATA",
	OutcomeExportFailedAndNoRecentExcel:        "DATA_EXPORT_FAILED_AND_NO_RECENT_EXCEL",
	OutcomeNoRecentExcel:                       "NO_RECENT_EXCEL_FILE",
	OutcomeUserInterrupted:                     "USER_INTERRUPTED",
}

var outcomeExitCodes = map[Outcome]int{
	OutcomeSuccess:                             0,
	OutcomeSuccessWithExportWarning:            0,
	OutcomeFeishuUpdateFailed:                  1,
	OutcomeFeishuUpdateFailedWithExportWarning: 1,
	OutcomeException:                           2,
	OutcomeNoData:                              4,
	OutcomeCSVSaveFailed:                       5,
	OutcomeFeishuTokenFailed:                   6,
	OutcomeExportFailedAndNoData:               8,
	OutcomeExportFailedAndNoRecentExcel:        9,
	OutcomeNoRecentExcel:                       10,
	OutcomeUserInterrupted:                     130,
}

func (o Outcome) Token() string {
	return outcomeTokens[o]
}

func (o Outcome) ExitCode() int {
	return outcomeExitCodes[o]
}

// ParseOutcome 由 STATUS 令牌文本反查终态，未知令牌按异常处理
func ParseOutcome(token string) Outcome {
	for o, t := range outcomeTokens {
		if t == token {
			return o
		}
	}
	return OutcomeException
}

// RunReport 一次同步运行的完整结果
type RunReport struct {
	Outcome       Outcome
	Detail        string // 附在 STATUS 令牌后的简短说明（异常/导出失败场景）
	ExportWarning string // 导出步骤失败但数据处理继续时的警告内容
	Processed     int    // 合并后本地数据总条数
	Created       int
	Updated       int
	CSVPath       string
	LogPath       string
}

func (r *RunReport) ExitCode() int {
	return r.Outcome.ExitCode()
}

func (r *RunReport) Success() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeSuccessWithExportWarning
}

// Emit 按约定格式向标准输出写状态行，供外层进程逐行解析
func (r *RunReport) Emit(w io.Writer) {
	detail := r.Detail
	if detail != "" {
		if runes := []rune(detail); len(runes) > 200 {
			detail = string(runes[:200])
		}
		fmt.Fprintf(w, "STATUS:%s:%s\n", r.Outcome.Token(), detail)
	} else {
		fmt.Fprintf(w, "STATUS:%s\n", r.Outcome.Token())
	}
	if r.ExportWarning != "" {
		fmt.Fprintf(w, "EXPORT_WARNING:%s\n", r.ExportWarning)
	}
	if r.Processed > 0 {
		fmt.Fprintf(w, "PROCESSED_RECORDS:%d\n", r.Processed)
	}
	if r.CSVPath != "" {
		fmt.Fprintf(w, "CSV_PATH:%s\n", r.CSVPath)
	}
	if r.LogPath != "" {
		fmt.Fprintf(w, "LOG_PATH:%s\n", r.LogPath)
	}
}
