package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// 多语言 JSON 字段参与搜索的语言
var searchLocales = []string{"en-US", "zh-CN"}

func dialectOf(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	if name := strings.ToLower(strings.TrimSpace(db.Dialector.Name())); name != "" {
		return name
	}
	return "sqlite"
}

func isPostgres(dialect string) bool {
	return dialect == "postgres" || dialect == "postgresql"
}

// jsonFieldText 提取 JSON 字段中某语言的文本，兼容 sqlite 与 postgres
func jsonFieldText(dialect, column, locale string) string {
	if isPostgres(dialect) {
		return fmt.Sprintf("(%s::jsonb ->> '%s')", column, locale)
	}
	return fmt.Sprintf("json_extract(%s, '$.\"%s\"')", column, locale)
}

// searchCondition 生成普通列与多语言 JSON 列的模糊匹配条件，返回条件与参数个数
func searchCondition(dialect string, plainColumns, jsonColumns []string) (string, int) {
	like := "LIKE"
	if isPostgres(dialect) {
		like = "ILIKE"
	}
	var parts []string
	for _, column := range plainColumns {
		parts = append(parts, fmt.Sprintf("%s %s ?", column, like))
	}
	for _, column := range jsonColumns {
		for _, locale := range searchLocales {
			parts = append(parts, fmt.Sprintf("%s %s ?", jsonFieldText(dialect, column, locale), like))
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")", len(parts)
}

func repeatArg(arg interface{}, count int) []interface{} {
	args := make([]interface{}, count)
	for i := range args {
		args[i] = arg
	}
	return args
}
