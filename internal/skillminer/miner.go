// Package skillminer 基于固定词表从简历纯文本中挖掘技能
package skillminer

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// DefaultVocabulary 默认技能词表
var DefaultVocabulary = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript", "C", "C++", "C#", "Ruby", "PHP",
	"Rust", "Scala", "Kotlin", "Swift", "Objective-C", "R", "MATLAB", "Perl", "Bash",
	"SQL", "MySQL", "PostgreSQL", "Oracle", "MongoDB", "Redis", "Cassandra", "Elasticsearch",
	"Kafka", "RabbitMQ", "Spark", "Hadoop", "Airflow",
	"Docker", "Kubernetes", "Terraform", "Ansible", "Jenkins", "Git", "Linux",
	"AWS", "Azure", "GCP",
	"React", "Angular", "Vue.js", "Node.js", "Django", "Flask", "Spring", ".NET", "GraphQL", "REST",
	"HTML", "CSS", "Machine Learning", "Deep Learning", "TensorFlow", "PyTorch", "Pandas",
	"Excel", "Tableau", "Salesforce", "SAP", "Jira", "Agile", "Scrum",
	"Project Management", "Customer Service", "Sales", "Marketing", "Accounting", "Recruiting",
}

// Miner 技能挖掘器，创建后只读，可并发使用
type Miner struct {
	terms []term
}

type term struct {
	name          string
	lower         string
	caseSensitive bool
}

// commonWords 同时是普通英文单词的技能，只按词表写法匹配
var commonWords = map[string]struct{}{
	"go": {}, "spring": {}, "excel": {}, "sales": {}, "oracle": {}, "swift": {},
	"rust": {}, "ruby": {}, "spark": {}, "flask": {}, "react": {}, "rest": {}, "bash": {},
}

// 不超过两个字符的词（C、R、C#）或常见英文单词需要区分大小写
func needsExactCase(name, lower string) bool {
	if utf8.RuneCountInString(name) <= 2 {
		return true
	}
	_, ok := commonWords[lower]
	return ok
}

// New 使用给定词表创建挖掘器，词表为空时使用 DefaultVocabulary。
// 词表按忽略大小写去重，保留第一次出现的写法。
func New(vocabulary []string) *Miner {
	if len(vocabulary) == 0 {
		vocabulary = DefaultVocabulary
	}
	m := &Miner{terms: make([]term, 0, len(vocabulary))}
	seen := make(map[string]struct{}, len(vocabulary))
	for _, v := range vocabulary {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		lower := strings.ToLower(v)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		m.terms = append(m.terms, term{name: v, lower: lower, caseSensitive: needsExactCase(v, lower)})
	}
	return m
}

type vocabularyFile struct {
	Skills []string `yaml:"skills"`
}

// LoadVocabulary 从YAML文件读取词表，文件格式为 skills: [..]
func LoadVocabulary(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取技能词表失败: %w", err)
	}
	var f vocabularyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析技能词表失败: %w", err)
	}
	if len(f.Skills) == 0 {
		return nil, fmt.Errorf("技能词表为空: %s", path)
	}
	return f.Skills, nil
}

// NewFromFile 从YAML文件创建挖掘器
func NewFromFile(path string) (*Miner, error) {
	vocab, err := LoadVocabulary(path)
	if err != nil {
		return nil, err
	}
	return New(vocab), nil
}

// Len 词表大小
func (m *Miner) Len() int { return len(m.terms) }

// Mine 返回文本中出现的技能（词表写法），按词表顺序。
// 匹配要求前后不是字母或数字，避免 "Go" 命中 "Google"。
// 短词和常见英文单词按原写法匹配，其余忽略大小写。
func (m *Miner) Mine(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	for _, t := range m.terms {
		var hit bool
		if t.caseSensitive {
			hit = containsTerm(text, t.name)
		} else {
			hit = containsTerm(lower, t.lower)
		}
		if hit {
			found = append(found, t.name)
		}
	}
	return found
}

func containsTerm(text, t string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], t)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(t)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

// '&' 视为词内字符，"R&D" 不命中 R
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '&'
}
