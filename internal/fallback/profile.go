package fallback

import (
	"regexp"
	"strings"
)

// NotFound 未识别出的字段
const NotFound = ""

// Profile 从简历正文中识别出的基本信息
type Profile struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`Name[:\s]+([A-Z][a-z]+ [A-Z][a-z]+)`),
		regexp.MustCompile(`(?m)^\s*([A-Z][a-z]+(?: [A-Z]\.)? [A-Z][a-z]+)`),
	}
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d-\d{3}-\d{3}-\d{4})`),    // 1-201-952-9492
		regexp.MustCompile(`(\(\d{3}\)\s*\d{3}-\d{4})`), // (201) 952-9492
		regexp.MustCompile(`(\d{3}-\d{3}-\d{4})`),       // 201-952-9492
		regexp.MustCompile(`(\d{10})`),
	}
	emailPattern     = regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Z][a-z]+,\s*[A-Z]{2})\b`), // City, ST
		regexp.MustCompile(`([A-Z][a-z]+ [A-Z]{2})\b`),    // City ST
	}
)

// 形似 "City ST" 但不是地点
var locationFalsePositives = map[string]struct{}{
	"Security CC":             {},
	"Computer Science":        {},
	"Data Science":            {},
	"Machine Learning":        {},
	"Artificial Intelligence": {},
}

// ExtractProfile 按规则识别姓名、电话、邮箱、所在地
func ExtractProfile(text string) Profile {
	var p Profile
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			p.Name = strings.TrimSpace(m[1])
			break
		}
	}
	for _, re := range phonePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			p.Phone = strings.TrimSpace(m[1])
			break
		}
	}
	if m := emailPattern.FindStringSubmatch(text); m != nil {
		p.Email = m[1]
	}

	for _, re := range locationPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimSpace(m[1])
			if _, bad := locationFalsePositives[candidate]; bad {
				continue
			}
			p.Location = candidate
			break
		}
		if p.Location != NotFound {
			break
		}
	}
	return p
}
