package parser

import (
	"regexp"
	"strings"
)

// 链接分类
const (
	LinkGitHub    = "github"
	LinkLinkedIn  = "linkedin"
	LinkPortfolio = "portfolio"
	LinkEmail     = "email"
	LinkOther     = "other"
)

var (
	githubProfilePattern   = regexp.MustCompile(`(?i)https?://(?:www\.)?github\.com/([^/]+)/?$`)
	githubProjectPattern   = regexp.MustCompile(`(?i)https?://(?:www\.)?github\.com/([^/]+)/([^/]+)`)
	linkedinProfilePattern = regexp.MustCompile(`(?i)https?://(?:www\.)?linkedin\.com/in/([^/]+)/?$`)
	mailtoPattern          = regexp.MustCompile(`(?i)mailto:([^?]+)`)
	githubPagesPattern     = regexp.MustCompile(`(?i)https?://([^/]+)\.github\.io/?`)

	// 正文中的链接
	textURLPattern  = regexp.MustCompile(`(?i)\b(?:https?://|mailto:)[^\s<>"'()\[\]{}]+`)
	bareSitePattern = regexp.MustCompile(`(?i)\b(?:www\.)?(?:github\.com|linkedin\.com/in)/[^\s<>"'()\[\]{}]+`)
)

// LinkCategories 按类别分组的链接
type LinkCategories struct {
	GitHub struct {
		Profile []string `json:"profile"`
		Project []string `json:"project"`
	} `json:"github"`
	LinkedIn struct {
		Profile []string `json:"profile"`
	} `json:"linkedin"`
	Portfolio []string `json:"portfolio"`
	Email     []string `json:"email"`
	Other     []string `json:"other"`
}

// CategorizeLink 返回 (类别, 清理后的链接, 子类型)
// 判断顺序: linkedin -> github.io -> github 主页/项目 -> mailto -> 其他
func CategorizeLink(url string) (string, string, string) {
	if linkedinProfilePattern.MatchString(url) {
		return LinkLinkedIn, url, "profile"
	}
	if githubPagesPattern.MatchString(url) {
		return LinkPortfolio, url, "github_pages"
	}
	if githubProfilePattern.MatchString(url) {
		return LinkGitHub, url, "profile"
	}
	if githubProjectPattern.MatchString(url) {
		return LinkGitHub, url, "project"
	}
	if m := mailtoPattern.FindStringSubmatch(url); m != nil {
		return LinkEmail, m[1], LinkEmail
	}
	return LinkOther, url, LinkOther
}

// Categorize 对一组链接分类
func Categorize(links []string) *LinkCategories {
	c := &LinkCategories{}
	c.GitHub.Profile = []string{}
	c.GitHub.Project = []string{}
	c.LinkedIn.Profile = []string{}
	c.Portfolio = []string{}
	c.Email = []string{}
	c.Other = []string{}

	for _, link := range links {
		category, cleaned, sub := CategorizeLink(link)
		switch category {
		case LinkGitHub:
			if sub == "profile" {
				c.GitHub.Profile = append(c.GitHub.Profile, cleaned)
			} else {
				c.GitHub.Project = append(c.GitHub.Project, cleaned)
			}
		case LinkLinkedIn:
			c.LinkedIn.Profile = append(c.LinkedIn.Profile, cleaned)
		case LinkPortfolio:
			c.Portfolio = append(c.Portfolio, cleaned)
		case LinkEmail:
			c.Email = append(c.Email, cleaned)
		default:
			c.Other = append(c.Other, cleaned)
		}
	}
	return c
}

// ExtractLinksFromText 提取正文中的 http(s)/mailto 链接，以及没有协议头的 github/linkedin 地址
func ExtractLinksFromText(text string) []string {
	var links []string
	for _, m := range textURLPattern.FindAllString(text, -1) {
		links = append(links, trimLinkPunctuation(m))
	}
	for _, loc := range bareSitePattern.FindAllStringIndex(text, -1) {
		// 已带协议头的在上面处理过
		if loc[0] >= 3 && strings.HasSuffix(text[:loc[0]], "://") {
			continue
		}
		links = append(links, "https://"+trimLinkPunctuation(text[loc[0]:loc[1]]))
	}
	return MergeLinks(links)
}

// MergeLinks 合并多个来源的链接，去重并保持首次出现的顺序
func MergeLinks(groups ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, link := range group {
			link = strings.TrimSpace(link)
			if link == "" {
				continue
			}
			key := strings.TrimSuffix(strings.ToLower(link), "/")
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, link)
		}
	}
	return out
}

func trimLinkPunctuation(s string) string {
	return strings.TrimRight(s, ".,;:!?")
}
