package validation

// 前端下拉框使用的标准选项，用户也可以输入自定义值

var StandardLocations = []string{
	"New York, NY", "San Francisco, CA", "Los Angeles, CA", "Chicago, IL",
	"Boston, MA", "Seattle, WA", "Austin, TX", "Denver, CO", "Atlanta, GA",
	"Miami, FL", "Dallas, TX", "Phoenix, AZ", "Philadelphia, PA", "Houston, TX",
	"San Diego, CA", "Portland, OR", "Nashville, TN", "Orlando, FL",
	"Las Vegas, NV", "Tampa, FL", "Remote", "Hybrid",
}

var StandardPositions = []string{
	"Software Engineer", "Data Scientist", "Product Manager", "UX Designer",
	"DevOps Engineer", "Frontend Developer", "Backend Developer", "Full Stack Developer",
	"Machine Learning Engineer", "Data Analyst", "Business Analyst", "Project Manager",
	"Marketing Manager", "Sales Representative", "HR Specialist", "Financial Analyst",
	"Consultant", "Research Scientist", "Technical Writer", "Quality Assurance Engineer",
}

var StandardJobTypes = []string{"Full Time", "Part Time", "Internship", "Contract"}

var StandardSkills = []string{
	// 工作方式
	"Remote Work", "Hybrid Work", "Flexible Hours", "Startup Environment",
	"Corporate Environment", "Fast-paced", "Collaborative", "Independent Work",
	// 技术
	"Python", "JavaScript", "React", "Node.js", "Java", "C++", "Machine Learning",
	"Artificial Intelligence", "Cloud Computing", "DevOps", "Agile", "Scrum",
	"Docker", "Kubernetes", "AWS", "Azure", "Google Cloud", "SQL", "NoSQL",
	// 行业
	"Fintech", "Healthcare", "E-commerce", "Education", "Gaming", "Social Media",
	"Cybersecurity", "Blockchain", "IoT", "Mobile Development", "Web Development",
	"Data Science", "Analytics", "Business Intelligence", "Automation",
}

// Catalog 对外暴露的选项与上限
type Catalog struct {
	Locations []string `json:"locations"`
	Positions []string `json:"positions"`
	JobTypes  []string `json:"job_types"`
	JobLevels []string `json:"job_levels"`
	Skills    []string `json:"skills"`
	Limits    Limits   `json:"limits"`
}

// Limits 多选字段上限与文件限制
type Limits struct {
	MaxLocations   int      `json:"max_locations"`
	MaxPositions   int      `json:"max_positions"`
	MaxSkills      int      `json:"max_skills"`
	MaxJobTypes    int      `json:"max_job_types"`
	MaxFileSize    int64    `json:"max_file_size"`
	Extensions     []string `json:"extensions"`
	OverflowPolicy Policy   `json:"overflow_policy"`
}
