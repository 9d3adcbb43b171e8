package studyhub

import (
	"strings"

	"github.com/samber/lo"
)

var catalog = map[EducationLevel][]string{
	Bachelors: {
		"Mathematics", "Physics", "Chemistry", "Biology", "Computer Science",
		"Engineering", "Business Administration", "Economics", "Psychology",
		"Sociology", "History", "Literature", "Philosophy", "Art History",
		"Political Science", "Geography", "Environmental Science", "Statistics",
		"Accounting", "Marketing", "Finance", "Human Resources", "Operations Management",
		"Information Technology", "Data Science", "Web Development", "Mobile Development",
		"Database Management", "Network Security", "Software Engineering", "Digital Marketing",
	},
	Masters: {
		"Advanced Mathematics", "Quantum Physics", "Advanced Chemistry", "Molecular Biology",
		"Advanced Computer Science", "Advanced Engineering", "MBA", "Advanced Economics",
		"Clinical Psychology", "Advanced Sociology", "Advanced History", "Advanced Literature",
		"Advanced Philosophy", "Advanced Political Science", "Environmental Policy",
		"Advanced Statistics", "Financial Analysis", "Strategic Management", "Business Analytics",
		"Advanced Information Technology", "Machine Learning", "Artificial Intelligence",
		"Advanced Data Science", "Cloud Computing", "Cybersecurity", "Advanced Software Engineering",
		"Project Management", "Leadership", "Innovation Management", "International Business",
	},
	PhD: {
		"Research Methodology", "Advanced Research Design", "Statistical Analysis",
		"Theoretical Physics", "Advanced Quantum Mechanics", "Advanced Organic Chemistry",
		"Advanced Molecular Biology", "Advanced Algorithms", "Advanced Systems Engineering",
		"Advanced Business Research", "Advanced Economic Theory", "Advanced Psychological Research",
		"Advanced Sociological Theory", "Advanced Historical Research", "Advanced Literary Theory",
		"Advanced Philosophical Research", "Advanced Political Theory", "Environmental Research",
		"Advanced Statistical Research", "Advanced Financial Research", "Advanced Management Research",
		"Advanced Technology Research", "Advanced AI Research", "Advanced Data Research",
		"Advanced Software Research", "Advanced Security Research", "Advanced Engineering Research",
		"Advanced Social Research", "Advanced Humanities Research",
	},
}

// Catalog returns the seed subject taxonomy without ids, bachelors first.
func Catalog() []Subject {
	var out []Subject
	for _, level := range []EducationLevel{Bachelors, Masters, PhD} {
		names := lo.Uniq(catalog[level])
		out = append(out, lo.Map(names, func(name string, _ int) Subject {
			return Subject{Name: name, Slug: Slugify(name), EducationLevel: level}
		})...)
	}
	return out
}

func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", "and")
	return strings.Join(strings.Fields(s), "-")
}

// ValidLevel reports whether l is a known education level. Empty is not.
func ValidLevel(l EducationLevel) bool {
	switch l {
	case Bachelors, Masters, PhD:
		return true
	default:
		return false
	}
}
