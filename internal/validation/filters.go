package validation

import (
	"regexp"
	"strings"
)

// 地点中不应出现的词：课程、专业、技术栈、公司名
var locationDenyWords = []string{
	"course", "class", "subject", "program", "degree", "major", "minor",
	"bachelor", "master", "phd", "doctorate", "certificate", "diploma",
	"computer science", "data science", "machine learning", "artificial intelligence",
	"engineering", "mathematics", "statistics", "business", "economics",
	"psychology", "biology", "chemistry", "physics", "literature", "history",
	"philosophy", "sociology", "political science", "international relations",
	"accounting", "finance", "marketing", "management", "human resources",
	"nursing", "medicine", "law", "education", "architecture", "design",
	"art", "music", "theater", "dance", "film", "journalism", "communication",
	"cisco", "ccna", "ccnp", "ccie", "microsoft", "azure", "aws", "google",
	"oracle", "java", "python", "javascript", "react", "angular", "vue",
	"node", "express", "django", "flask", "spring", "hibernate", "mysql",
	"postgresql", "mongodb", "redis", "docker", "kubernetes", "jenkins",
	"git", "github", "gitlab", "bitbucket", "jira", "confluence", "slack",
	"salesforce", "tableau", "power bi", "excel", "word", "powerpoint",
	"agile", "scrum", "kanban", "devops", "ci/cd", "api", "rest", "graphql",
}

var locationIndicators = []string{
	"city", "town", "village", "county", "state", "province", "region",
	"country", "nation", "island", "peninsula", "coast", "valley",
	"mountain", "hill", "river", "lake", "bay", "gulf", "ocean",
	"remote", "hybrid", "onsite", "offsite", "virtual", "online",
}

var positionDenyWords = []string{
	"course", "class", "subject", "program", "degree", "major", "minor",
	"bachelor", "master", "phd", "doctorate", "certificate", "diploma",
	"university", "college", "school", "institute", "academy", "training",
	"location", "address", "phone", "email", "contact", "resume", "cv",
	"experience", "skills", "education", "projects", "achievements",
}

var positionIndicators = []string{
	"engineer", "developer", "analyst", "manager", "director", "coordinator",
	"specialist", "consultant", "advisor", "assistant", "associate", "senior",
	"junior", "lead", "principal", "architect", "designer", "researcher",
	"scientist", "administrator", "supervisor", "executive", "officer",
	"representative", "agent", "technician", "operator", "clerk", "writer",
}

var skillDenyWords = []string{
	"course", "class", "subject", "program", "degree", "major", "minor",
	"bachelor", "master", "phd", "doctorate", "certificate", "diploma",
	"university", "college", "school", "institute", "academy", "training",
	"location", "address", "phone", "email", "contact", "resume", "cv",
	"experience", "projects", "achievements", "name", "age",
}

var (
	cityStatePattern   = regexp.MustCompile(`[A-Z][a-z]+,\s*[A-Z]{2}`)
	cityCountryPattern = regexp.MustCompile(`[A-Z][a-z]+,\s*[A-Z][a-z]+`)
	wordSplitter       = regexp.MustCompile(`[^a-z0-9/+#.]+`)
)

// containsWord 按词匹配(多词短语按连续词匹配)，避免 "Hartford" 命中 "art"
func containsWord(text string, words []string) bool {
	tokens := " " + strings.Join(wordSplitter.Split(strings.ToLower(text), -1), " ") + " "
	for _, w := range words {
		if strings.Contains(tokens, " "+w+" ") {
			return true
		}
	}
	return false
}

func inCatalog(value string, catalog []string) bool {
	for _, c := range catalog {
		if strings.EqualFold(c, value) {
			return true
		}
	}
	return false
}

// ValidLocation 判断是否像一个地点
func ValidLocation(location string) bool {
	location = strings.TrimSpace(location)
	if location == "" {
		return false
	}
	if inCatalog(location, StandardLocations) {
		return true
	}
	if containsWord(location, locationDenyWords) {
		return false
	}
	if containsWord(location, locationIndicators) ||
		cityStatePattern.MatchString(location) ||
		cityCountryPattern.MatchString(location) {
		return true
	}
	// 单个长词无法判断为地点
	return !(len(strings.Fields(location)) == 1 && len(location) > 3)
}

// ValidPosition 判断是否像一个职位名称
func ValidPosition(position string) bool {
	position = strings.TrimSpace(position)
	if position == "" {
		return false
	}
	if inCatalog(position, StandardPositions) {
		return true
	}
	if containsWord(position, positionDenyWords) {
		return false
	}
	lower := strings.ToLower(position)
	for _, indicator := range positionIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return len(strings.Fields(position)) > 1
}

// ValidSkill 判断是否像一个技能/偏好关键词
func ValidSkill(skill string) bool {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return false
	}
	if inCatalog(skill, StandardSkills) {
		return true
	}
	return !containsWord(skill, skillDenyWords)
}

// cleanEntries 去除空白项和重复项(大小写不敏感)，保持原顺序
func cleanEntries(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// filterEntries 静默丢弃不合法的项
func filterEntries(values []string, valid func(string) bool) []string {
	out := values[:0:0]
	for _, v := range values {
		if valid(v) {
			out = append(out, v)
		}
	}
	return out
}
