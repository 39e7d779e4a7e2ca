package fallback

// jobTemplate 一类岗位的候选素材，按下标随机组合
type jobTemplate struct {
	Titles       []string
	Companies    []string
	Descriptions []string
	Requirements [][]string
	Benefits     [][]string
	SalaryRanges []string
}

// 类别判断关键词，命中任意一个即走数据类模板
var dataTrackKeywords = []string{"data", "ml", "machine learning", "ai", "analytics", "statistics"}

var defaultLocations = []string{"San Francisco, CA", "New York, NY", "Seattle, WA", "Austin, TX", "Boston, MA", "Remote"}

var softwareTemplate = jobTemplate{
	Titles: []string{"Software Engineer", "Senior Software Engineer", "Full Stack Developer", "Backend Developer", "Frontend Developer"},
	Companies: []string{"Google", "Microsoft", "Amazon", "Meta", "Apple", "Netflix", "Uber", "Airbnb", "Spotify", "Slack",
		"Zoom", "Salesforce", "Adobe", "Oracle", "IBM"},
	Descriptions: []string{
		"We are looking for a talented software engineer to join our growing team. You will work on cutting-edge projects and collaborate with cross-functional teams to deliver high-quality software solutions.",
		"Join our engineering team to build scalable, high-performance applications. You'll work with modern technologies and have the opportunity to make a real impact on millions of users.",
		"We're seeking a passionate developer to help us build the next generation of our platform. You'll work on challenging problems and have the freedom to innovate and experiment.",
		"Come join our team and help us build amazing products that users love. We offer a collaborative environment where you can grow your skills and advance your career.",
		"We're looking for a skilled engineer to join our team and help us scale our platform. You'll work with cutting-edge technologies and have the opportunity to learn from industry experts.",
	},
	Requirements: [][]string{
		{"Bachelor's degree in Computer Science or related field", "3+ years of software development experience", "Proficiency in Python/Java/JavaScript", "Experience with cloud platforms (AWS/GCP/Azure)", "Strong problem-solving skills"},
		{"Master's degree in Computer Science", "5+ years of experience", "Expertise in microservices architecture", "Experience with Docker and Kubernetes", "Strong leadership skills"},
		{"Bachelor's degree", "2+ years of experience", "Proficiency in React/Angular/Vue", "Experience with RESTful APIs", "Knowledge of version control systems"},
		{"Computer Science degree", "4+ years of experience", "Experience with databases (SQL/NoSQL)", "Knowledge of CI/CD pipelines", "Strong communication skills"},
		{"Relevant degree", "1+ years of experience", "Basic programming skills", "Eagerness to learn", "Team player attitude"},
	},
	Benefits: [][]string{
		{"Competitive salary", "Health insurance", "401k matching", "Flexible work hours", "Remote work options"},
		{"Stock options", "Unlimited PTO", "Learning budget", "Gym membership", "Catered meals"},
		{"Health benefits", "Dental insurance", "Vision insurance", "Life insurance", "Disability insurance"},
		{"Professional development", "Conference attendance", "Mentorship programs", "Career growth opportunities", "Team building events"},
		{"Work-life balance", "Mental health support", "Employee assistance program", "Commuter benefits", "Pet-friendly office"},
	},
	SalaryRanges: []string{"$80,000 - $120,000", "$120,000 - $180,000", "$100,000 - $150,000", "$90,000 - $140,000", "$70,000 - $110,000"},
}

var dataTemplate = jobTemplate{
	Titles: []string{"Data Scientist", "Senior Data Scientist", "Machine Learning Engineer", "Data Analyst", "Research Scientist"},
	Companies: []string{"Tesla", "OpenAI", "Anthropic", "Palantir", "Databricks", "Snowflake", "MongoDB", "Elastic", "Confluent",
		"HashiCorp", "GitLab", "Atlassian", "Twilio", "Stripe", "Square"},
	Descriptions: []string{
		"We're looking for a data scientist to help us extract insights from large datasets and build machine learning models that drive business decisions.",
		"Join our data science team to work on cutting-edge ML projects. You'll have the opportunity to work with state-of-the-art algorithms and massive datasets.",
		"We're seeking a talented ML engineer to help us build and deploy machine learning models at scale. You'll work with our engineering team to integrate ML solutions into our products.",
		"Come join our analytics team and help us make data-driven decisions. You'll work with stakeholders across the company to understand business needs and provide actionable insights.",
		"We're looking for a research scientist to push the boundaries of what's possible with AI and machine learning. You'll have the freedom to explore new ideas and publish your work.",
	},
	Requirements: [][]string{
		{"PhD in Data Science/ML/Statistics", "5+ years of ML experience", "Expertise in Python/R", "Experience with deep learning frameworks", "Strong mathematical background"},
		{"Master's degree in relevant field", "3+ years of experience", "Proficiency in SQL", "Experience with cloud ML platforms", "Strong analytical skills"},
		{"Bachelor's degree", "2+ years of experience", "Knowledge of statistics", "Experience with data visualization", "Strong communication skills"},
		{"Relevant degree", "1+ years of experience", "Basic programming skills", "Eagerness to learn", "Attention to detail"},
		{"PhD in Computer Science", "Research experience", "Publications in top venues", "Expertise in multiple ML domains", "Strong problem-solving skills"},
	},
	Benefits: [][]string{
		{"Competitive salary", "Stock options", "Health insurance", "401k matching", "Flexible schedule"},
		{"Research budget", "Conference attendance", "Publication support", "Collaboration opportunities", "Cutting-edge projects"},
		{"Learning opportunities", "Mentorship", "Career development", "Team collaboration", "Innovation time"},
		{"Health benefits", "Dental insurance", "Vision insurance", "Life insurance", "Disability insurance"},
		{"Work-life balance", "Mental health support", "Employee assistance", "Commuter benefits", "Pet-friendly office"},
	},
	SalaryRanges: []string{"$120,000 - $200,000", "$100,000 - $160,000", "$90,000 - $140,000", "$80,000 - $130,000", "$150,000 - $300,000"},
}
