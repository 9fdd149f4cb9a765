package reference

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var countriesYAML []byte

// Country 国家与邮编格式
type Country struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	PostalRegex string `yaml:"postal_regex" json:"postal_regex"`
	Example     string `yaml:"example" json:"example"`

	pattern *regexp.Regexp
}

// MatchesPostalCode 校验邮编格式，未配置正则时不做约束
func (c Country) MatchesPostalCode(value string) bool {
	if c.pattern == nil {
		return true
	}
	return c.pattern.MatchString(strings.TrimSpace(value))
}

// Table 只读国家表
type Table struct {
	byCode map[string]Country
	sorted []Country
}

type countriesFile struct {
	Countries []Country `yaml:"countries"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default 返回进程内共享的国家表，首次调用时加载
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(countriesYAML)
	})
	if defaultErr != nil {
		panic(fmt.Errorf("load embedded countries: %w", defaultErr))
	}
	return defaultTable
}

// Parse 解析 YAML 国家表
func Parse(raw []byte) (*Table, error) {
	var file countriesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode countries yaml: %w", err)
	}
	table := &Table{
		byCode: make(map[string]Country, len(file.Countries)),
		sorted: make([]Country, 0, len(file.Countries)),
	}
	for _, country := range file.Countries {
		country.Code = strings.ToUpper(strings.TrimSpace(country.Code))
		if country.Code == "" {
			return nil, fmt.Errorf("country without code: %q", country.Name)
		}
		if _, dup := table.byCode[country.Code]; dup {
			return nil, fmt.Errorf("duplicate country code %s", country.Code)
		}
		if country.PostalRegex != "" {
			pattern, err := regexp.Compile(country.PostalRegex)
			if err != nil {
				return nil, fmt.Errorf("country %s postal regex: %w", country.Code, err)
			}
			country.pattern = pattern
		}
		table.byCode[country.Code] = country
		table.sorted = append(table.sorted, country)
	}
	sort.Slice(table.sorted, func(i, j int) bool {
		return table.sorted[i].Name < table.sorted[j].Name
	})
	return table, nil
}

// Lookup 按国家代码查找，大小写不敏感
func (t *Table) Lookup(code string) (Country, bool) {
	if t == nil {
		return Country{}, false
	}
	country, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return country, ok
}

// All 按名称排序返回全部国家
func (t *Table) All() []Country {
	if t == nil {
		return nil
	}
	out := make([]Country, len(t.sorted))
	copy(out, t.sorted)
	return out
}
